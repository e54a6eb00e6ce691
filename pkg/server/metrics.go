package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Solve outcomes recorded on jig_solves_total.
const (
	outcomeConverged = "converged"
	outcomeFallback  = "fallback"
	outcomeError     = "error"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	Solves        *prometheus.CounterVec
	SolveDuration prometheus.Histogram
	Fallbacks     prometheus.Counter
	Frames        prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Solves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jig_solves_total",
				Help: "Total number of scene solves by outcome",
			},
			[]string{"outcome"},
		),
		SolveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jig_solve_duration_seconds",
				Help:    "Duration of scene builds, including local track baking",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
		Fallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "jig_fallbacks_total",
				Help: "Total number of solves or frames that fell back to seed poses",
			},
		),
		Frames: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "jig_frames_total",
				Help: "Total number of frames sampled",
			},
		),
	}
	reg.MustRegister(m.Solves, m.SolveDuration, m.Fallbacks, m.Frames)
	return m
}

func (m *Metrics) observeBuild(seconds float64, fallback bool, err error) {
	m.SolveDuration.Observe(seconds)
	switch {
	case err != nil:
		m.Solves.WithLabelValues(outcomeError).Inc()
	case fallback:
		m.Solves.WithLabelValues(outcomeFallback).Inc()
		m.Fallbacks.Inc()
	default:
		m.Solves.WithLabelValues(outcomeConverged).Inc()
	}
}
