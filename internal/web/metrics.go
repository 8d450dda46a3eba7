package web

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors exported on /metrics.
type Metrics struct {
	Registry        *prometheus.Registry
	Requests        *prometheus.CounterVec
	Latency         prometheus.Histogram
	PosterFallbacks prometheus.Counter
}

// NewMetrics registers the recommendation collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reel_recommend_requests_total",
			Help: "Recommendation requests by outcome.",
		}, []string{"outcome"}),
		Latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reel_recommend_duration_seconds",
			Help:    "Time to rank and resolve posters for one request.",
			Buckets: prometheus.DefBuckets,
		}),
		PosterFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reel_poster_placeholder_total",
			Help: "Recommendation slots served with the placeholder poster.",
		}),
	}
	m.Registry.MustRegister(m.Requests, m.Latency, m.PosterFallbacks)
	return m
}
