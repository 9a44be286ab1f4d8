package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type callbackOutcome string

const (
	outcomeApplied          callbackOutcome = "applied"
	outcomeNotFound         callbackOutcome = "not_found"
	outcomeHashMismatch     callbackOutcome = "hash_mismatch"
	outcomeMissingLookupKey callbackOutcome = "missing_lookup_key"
	outcomeConfigError      callbackOutcome = "config_error"
	outcomeInternalError    callbackOutcome = "internal_error"
)

type metrics struct {
	registry         *prometheus.Registry
	callbacks        *prometheus.CounterVec
	callbackDuration prometheus.Histogram
}

// newMetrics uses its own registry so each API instance, and each test, starts
// from zero.
func newMetrics() *metrics {
	callbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_callbacks_total",
		Help: "Payment gateway callbacks by outcome.",
	}, []string{"outcome"})

	callbackDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_callback_duration_seconds",
		Help:    "Time spent handling a payment gateway callback.",
		Buckets: prometheus.DefBuckets,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		callbacks,
		callbackDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &metrics{
		registry:         registry,
		callbacks:        callbacks,
		callbackDuration: callbackDuration,
	}
}

func (m *metrics) observeCallback(outcome callbackOutcome, elapsed time.Duration) {
	m.callbacks.WithLabelValues(string(outcome)).Inc()
	m.callbackDuration.Observe(elapsed.Seconds())
}
