package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for checkout attempts.
const (
	OutcomeSuccess            = "success"
	OutcomeEmptyCart          = "empty_cart"
	OutcomePriceResolution    = "price_resolution_failed"
	OutcomePersistenceFailed  = "persistence_failed"
	OutcomeConcurrentRejected = "concurrent_rejected"
	OutcomeUpstreamFailed     = "upstream_unavailable"
	OutcomeInternal           = "internal_error"
)

var (
	// AttemptsTotal counts checkout attempts by final outcome.
	AttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Total number of checkout attempts by outcome",
	}, []string{"outcome"})

	// CartClearFailures counts orders placed whose cart could not be
	// cleared synchronously.
	CartClearFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_cart_clear_failures_total",
		Help: "Total number of checkouts that succeeded with a failed cart clear",
	})

	// Duration observes end-to-end checkout latency.
	Duration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "End-to-end checkout duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
)
