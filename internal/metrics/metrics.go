package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Player sessions
	LoopRestarts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "looper_loop_restarts_total",
		Help: "Total number of times a segment was restarted after the embed reported ended",
	})

	LiveHandles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "looper_player_handles",
		Help: "Number of embedded player handles currently alive",
	})

	PlayerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "looper_player_errors_total",
		Help: "Player session failures by kind",
	}, []string{"kind"}) // kind=api_load|player_init|playback

	PlayerSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "looper_player_sessions",
		Help: "Number of mounted player sessions across all connections",
	})

	PlayerConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "looper_player_connections",
		Help: "Number of open player websocket connections",
	})

	// Saved loops
	LoopOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "looper_loop_operations_total",
		Help: "Saved loop operations by operation and outcome",
	}, []string{"operation", "outcome"}) // outcome=success|failure

	MetadataLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "looper_metadata_lookups_total",
		Help: "YouTube metadata lookups by outcome",
	}, []string{"outcome"})
)

func ObserveLoopOperation(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}

	LoopOperations.WithLabelValues(operation, outcome).Inc()
}
