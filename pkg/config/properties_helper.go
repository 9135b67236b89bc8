package config

import "time"

// Normalize fills in defaults for anything LoadConfig (or a hand-built
// Config in tests) left at its zero value, the same pass the teacher's
// Normalize makes over broker defaults before the service starts.
func (c *Config) Normalize() {
	if c.SnapshotLoadingMaxRetries <= 0 {
		c.SnapshotLoadingMaxRetries = 2
	}
	if c.AsyncUpdateStalenessTimeLimitMillis < 0 {
		c.AsyncUpdateStalenessTimeLimitMillis = 0
	}
	if c.CheckpointRetentionWindow <= 0 {
		c.CheckpointRetentionWindow = 7 * 24 * time.Hour
	}
	if c.ExecutorPoolSize <= 0 {
		c.ExecutorPoolSize = 8
	}
	if c.ExecutorQueueDepth <= 0 {
		c.ExecutorQueueDepth = 4 * c.ExecutorPoolSize
	}
	if c.PointInTimeCacheSize <= 0 {
		c.PointInTimeCacheSize = 32
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":9090"
	}
}
