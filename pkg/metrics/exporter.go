package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/downfa11-org/snapshotcore/util"
)

func init() {
	prometheus.MustRegister(
		CacheRefreshTotal,
		CacheRefreshDuration,
		CacheStaleness,
		CheckpointFallbackTotal,
		TableIdentityChangedTotal,
	)
}

// StartMetricsServer starts a background HTTP server exposing /metrics on
// addr, the same fire-and-forget goroutine shape as the teacher's
// StartMetricsServer, generalized from a bare port to a full address.
func StartMetricsServer(addr string) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		util.Info("metrics exporter listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			util.Error("metrics server stopped: %v", err)
		}
	}()
}
