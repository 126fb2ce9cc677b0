package extraction

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Answer outcomes recorded in AnswersTotal.
const (
	outcomeMatched    = "matched"
	outcomeFallback   = "fallback"
	outcomeUnanswered = "unanswered"
	outcomeError      = "error"
)

var (
	// AnswersTotal counts extracted answers.
	// Labels: category (name, email, ...), outcome (matched, fallback, unanswered, error)
	AnswersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "callscribe",
			Subsystem: "extraction",
			Name:      "answers_total",
			Help:      "Total number of answers extracted by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	// ExtractDuration tracks how long a full extraction takes.
	ExtractDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "callscribe",
			Subsystem: "extraction",
			Name:      "duration_seconds",
			Help:      "Duration of transcript extraction in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)
)
