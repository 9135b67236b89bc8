// Command snapshotctl is a small REPL over one table's SnapshotCache,
// built the way the teacher's cmd/cli wraps its broker's CommandHandler:
// load config, wire collaborators, then loop reading commands from stdin.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/downfa11-org/snapshotcore/internal/cache"
	"github.com/downfa11-org/snapshotcore/internal/snapshot"
	"github.com/downfa11-org/snapshotcore/pkg/config"
	"github.com/downfa11-org/snapshotcore/pkg/executor"
	"github.com/downfa11-org/snapshotcore/pkg/metrics"
	"github.com/downfa11-org/snapshotcore/pkg/storage"
	"github.com/downfa11-org/snapshotcore/pkg/types"
	"github.com/downfa11-org/snapshotcore/util"
)

func main() {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.LogPath == "" {
		log.Fatal("log path is required: pass -log-path=/path/to/table/_delta_log")
	}
	util.SetLevel(cfg.LogLevel)

	fmt.Printf("snapshotcore: watching %s (max retries %d, staleness limit %s)\n",
		cfg.LogPath, cfg.SnapshotLoadingMaxRetries, cfg.AsyncUpdateStalenessTimeLimit())

	sink := metrics.NewPrometheusSink()
	if cfg.EnableMetrics {
		metrics.StartMetricsServer(cfg.MetricsAddr)
	}

	pool := executor.New("snapshot-async", cfg.ExecutorPoolSize, cfg.ExecutorQueueDepth)
	defer pool.Close()

	backend := storage.NewLocalBackend()
	c := cache.New(cfg.LogPath, backend, cfg.SnapshotLoadingMaxRetries, cfg.CheckpointRetentionWindow,
		cfg.AsyncUpdateStalenessTimeLimit(), pool, cfg.PointInTimeCacheSize, sink, sink)

	if err := c.Init(context.Background()); err != nil {
		log.Fatalf("failed to initialize snapshot cache: %v", err)
	}

	fmt.Println("ready. commands: SNAPSHOT | UPDATE [async] | GET <version> | EXIT")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "EXIT") {
			break
		}
		fmt.Println(handleCommand(c, line))
	}
}

func handleCommand(c *cache.Cache, line string) string {
	fields := strings.Fields(line)
	switch strings.ToUpper(fields[0]) {
	case "SNAPSHOT":
		return describeSnapshot(c.Snapshot())
	case "UPDATE":
		async := len(fields) > 1 && strings.EqualFold(fields[1], "async")
		snap, err := c.Update(context.Background(), async)
		if err != nil {
			return fmt.Sprintf("update failed: %v", err)
		}
		return describeSnapshot(snap)
	case "GET":
		if len(fields) < 2 {
			return "usage: GET <version>"
		}
		v, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return fmt.Sprintf("invalid version %q: %v", fields[1], err)
		}
		snap, err := c.GetSnapshotAt(types.Version(v), nil)
		if err != nil {
			return fmt.Sprintf("getSnapshotAt failed: %v", err)
		}
		return describeSnapshot(snap)
	default:
		return fmt.Sprintf("unknown command %q", fields[0])
	}
}

func describeSnapshot(snap snapshot.Snapshot) string {
	checkpoint := "none"
	if snap.LogSegment.CheckpointVersion != nil {
		checkpoint = strconv.FormatInt(int64(*snap.LogSegment.CheckpointVersion), 10)
	}
	return fmt.Sprintf("version=%d tableId=%s checkpointVersion=%s deltas=%d",
		snap.Version, snap.TableID(), checkpoint, len(snap.LogSegment.Deltas))
}
