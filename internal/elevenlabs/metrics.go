package elevenlabs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts provider requests by operation and outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "callscribe",
			Subsystem: "elevenlabs",
			Name:      "requests_total",
			Help:      "Total ElevenLabs API requests by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RequestDuration tracks provider latency including retries.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "callscribe",
			Subsystem: "elevenlabs",
			Name:      "request_duration_seconds",
			Help:      "ElevenLabs API request latency including retries",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	// RetriesTotal counts retry attempts by operation.
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "callscribe",
			Subsystem: "elevenlabs",
			Name:      "retries_total",
			Help:      "Total retried ElevenLabs API requests",
		},
		[]string{"operation"},
	)
)
