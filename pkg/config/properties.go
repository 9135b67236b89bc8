// Package config loads snapshotcore's runtime configuration the way the
// teacher's pkg/config does: flags define and document every key, an
// optional YAML file supplies overrides, and explicitly-set flags always
// win over the file. There is no separate "defaults" struct — zero values
// are filled in by Normalize after loading.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/downfa11-org/snapshotcore/util"
)

// Config holds every tunable snapshotcore reads at startup. The two keys
// named directly in the table format spec are SnapshotLoadingMaxRetries
// (spec key snapshot.loading.maxRetries) and AsyncUpdateStalenessTimeLimit
// (spec key async.update.stalenessTimeLimit, given in milliseconds on the
// wire and in YAML). Everything else is ambient scaffolding every
// teacher-style service carries: logging, metrics, and the async executor
// pool the cache offloads refreshes to.
type Config struct {
	// LogPath is the table log directory snapshotcore reads from
	// (_delta_log-equivalent). Required; there is no sane default.
	LogPath string `yaml:"log_path"`

	// SnapshotLoadingMaxRetries bounds SnapshotFactory's corruption-retry
	// loop (spec.md §6, key snapshot.loading.maxRetries).
	SnapshotLoadingMaxRetries int `yaml:"snapshot_loading_max_retries"`

	// AsyncUpdateStalenessTimeLimitMillis is the cache's staleness budget
	// in milliseconds (spec.md §6, key async.update.stalenessTimeLimit).
	// Zero forces every update onto the synchronous path.
	AsyncUpdateStalenessTimeLimitMillis int64 `yaml:"async_update_staleness_time_limit_millis"`

	// CheckpointRetentionWindow feeds Snapshot.MinFileRetentionTimestamp;
	// see DESIGN.md for why this repo tracks it at all given vacuum/GC is
	// a spec.md non-goal.
	CheckpointRetentionWindow time.Duration `yaml:"checkpoint_retention_window"`

	// ExecutorPoolSize and ExecutorQueueDepth size the shared async
	// executor the cache's background refreshes run on.
	ExecutorPoolSize   int `yaml:"executor_pool_size"`
	ExecutorQueueDepth int `yaml:"executor_queue_depth"`

	// PointInTimeCacheSize bounds the LRU of already-materialized
	// historical snapshots getSnapshotAt keeps around.
	PointInTimeCacheSize int `yaml:"point_in_time_cache_size"`

	LogLevel util.LogLevel `yaml:"log_level"`

	EnableMetrics bool   `yaml:"enable_metrics"`
	MetricsAddr   string `yaml:"metrics_addr"`
}

// AsyncUpdateStalenessTimeLimit returns the configured staleness budget as
// a time.Duration.
func (c Config) AsyncUpdateStalenessTimeLimit() time.Duration {
	return time.Duration(c.AsyncUpdateStalenessTimeLimitMillis) * time.Millisecond
}

// LoadConfig parses flags, layers in a YAML file when -config is given,
// then normalizes. Flags set explicitly on the command line always win
// over the file, mirroring the teacher's LoadConfig/applyExplicitFlags
// split.
func LoadConfig(args []string) (Config, error) {
	fs := flag.NewFlagSet("snapshotcore", flag.ContinueOnError)

	logPath := fs.String("log-path", "", "table log directory to read")
	configPath := fs.String("config", "", "optional YAML config file; flags override its values")
	maxRetries := fs.Int("snapshot.loading.max-retries", 2, "max SnapshotFactory retries on checkpoint corruption")
	stalenessMillis := fs.Int64("async.update.staleness-time-limit", 500, "cache staleness budget in milliseconds; 0 forces synchronous updates")
	retentionHours := fs.Int("checkpoint-retention-hours", 7*24, "hours a snapshot's tombstones remain eligible for retention")
	poolSize := fs.Int("executor-pool-size", 8, "worker goroutines in the shared async executor")
	queueDepth := fs.Int("executor-queue-depth", 64, "job queue depth for the shared async executor")
	ptCacheSize := fs.Int("point-in-time-cache-size", 32, "max historical snapshots cached by getSnapshotAt")
	logLevel := fs.String("log-level", "info", "debug|info|warn|error")
	enableMetrics := fs.Bool("enable-metrics", true, "expose a Prometheus /metrics endpoint")
	metricsAddr := fs.String("metrics-addr", ":9090", "address the metrics HTTP server listens on")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}

	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	cfg := Config{
		LogPath:                             *logPath,
		SnapshotLoadingMaxRetries:           *maxRetries,
		AsyncUpdateStalenessTimeLimitMillis: *stalenessMillis,
		CheckpointRetentionWindow:           time.Duration(*retentionHours) * time.Hour,
		ExecutorPoolSize:                    *poolSize,
		ExecutorQueueDepth:                  *queueDepth,
		PointInTimeCacheSize:                *ptCacheSize,
		LogLevel:                            util.ParseLogLevel(*logLevel),
		EnableMetrics:                       *enableMetrics,
		MetricsAddr:                         *metricsAddr,
	}

	if *configPath != "" {
		if err := applyYAMLFile(&cfg, *configPath, explicit); err != nil {
			return Config{}, err
		}
	}

	cfg.Normalize()
	return cfg, nil
}

// fileConfig mirrors Config for YAML decoding but keeps LogLevel as a raw
// string so "unset" can be distinguished from "debug" (LogLevelDebug is
// the zero value of util.LogLevel, so decoding straight into Config would
// make every absent log_level key look like an explicit "debug").
type fileConfig struct {
	LogPath                             string        `yaml:"log_path"`
	SnapshotLoadingMaxRetries           int           `yaml:"snapshot_loading_max_retries"`
	AsyncUpdateStalenessTimeLimitMillis int64         `yaml:"async_update_staleness_time_limit_millis"`
	CheckpointRetentionWindow           time.Duration `yaml:"checkpoint_retention_window"`
	ExecutorPoolSize                    int           `yaml:"executor_pool_size"`
	ExecutorQueueDepth                  int           `yaml:"executor_queue_depth"`
	PointInTimeCacheSize                int           `yaml:"point_in_time_cache_size"`
	LogLevel                            string        `yaml:"log_level"`
	EnableMetrics                       *bool         `yaml:"enable_metrics"`
	MetricsAddr                         string        `yaml:"metrics_addr"`
}

// applyYAMLFile loads path and overwrites any field in cfg whose flag was
// not explicitly set on the command line, the same "file fills gaps, flags
// win" precedence the teacher's LoadConfig uses.
func applyYAMLFile(cfg *Config, path string, explicit map[string]bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fromFile fileConfig
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if !explicit["log-path"] && fromFile.LogPath != "" {
		cfg.LogPath = fromFile.LogPath
	}
	if !explicit["snapshot.loading.max-retries"] && fromFile.SnapshotLoadingMaxRetries != 0 {
		cfg.SnapshotLoadingMaxRetries = fromFile.SnapshotLoadingMaxRetries
	}
	if !explicit["async.update.staleness-time-limit"] && fromFile.AsyncUpdateStalenessTimeLimitMillis != 0 {
		cfg.AsyncUpdateStalenessTimeLimitMillis = fromFile.AsyncUpdateStalenessTimeLimitMillis
	}
	if !explicit["checkpoint-retention-hours"] && fromFile.CheckpointRetentionWindow != 0 {
		cfg.CheckpointRetentionWindow = fromFile.CheckpointRetentionWindow
	}
	if !explicit["executor-pool-size"] && fromFile.ExecutorPoolSize != 0 {
		cfg.ExecutorPoolSize = fromFile.ExecutorPoolSize
	}
	if !explicit["executor-queue-depth"] && fromFile.ExecutorQueueDepth != 0 {
		cfg.ExecutorQueueDepth = fromFile.ExecutorQueueDepth
	}
	if !explicit["point-in-time-cache-size"] && fromFile.PointInTimeCacheSize != 0 {
		cfg.PointInTimeCacheSize = fromFile.PointInTimeCacheSize
	}
	if !explicit["log-level"] && fromFile.LogLevel != "" {
		cfg.LogLevel = util.ParseLogLevel(fromFile.LogLevel)
	}
	if !explicit["enable-metrics"] && fromFile.EnableMetrics != nil {
		cfg.EnableMetrics = *fromFile.EnableMetrics
	}
	if !explicit["metrics-addr"] && fromFile.MetricsAddr != "" {
		cfg.MetricsAddr = fromFile.MetricsAddr
	}
	return nil
}
