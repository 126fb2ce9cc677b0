package calls

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CallsTotal counts make-call attempts by outcome.
	CallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "callscribe",
			Subsystem: "calls",
			Name:      "initiated_total",
			Help:      "Total call initiation attempts by outcome",
		},
		[]string{"outcome"},
	)

	// ConversationsProcessed counts processed conversations by how the
	// conversation was matched to the call.
	ConversationsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "callscribe",
			Subsystem: "calls",
			Name:      "conversations_processed_total",
			Help:      "Total processed conversations by match strategy",
		},
		[]string{"match"},
	)

	// ProcessDuration tracks end-to-end conversation processing latency.
	ProcessDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "callscribe",
			Subsystem: "calls",
			Name:      "process_duration_seconds",
			Help:      "Conversation processing latency including provider calls",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// ActiveCalls is the number of calls currently in the store.
	ActiveCalls = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "callscribe",
			Subsystem: "calls",
			Name:      "active",
			Help:      "Calls currently held in the store",
		},
	)
)
