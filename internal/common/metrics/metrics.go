// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_outcomes_total",
			Help: "Total dispatch outcomes by terminal status",
		},
		[]string{"status", "error_code"},
	)

	TransportSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_transport_sends_total",
			Help: "Outbound transport calls by transport and result",
		},
		[]string{"transport", "result"},
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "dispatch_cycle_duration_seconds",
			Help: "Duration of a full scheduler cycle in seconds",
		},
	)

	UnsentQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_unsent_queue_depth",
			Help: "Number of unsent notifications seen at the start of a cycle",
		},
	)
)
