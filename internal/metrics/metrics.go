// Package metrics exposes the service's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DeliberationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "council_deliberations_total",
		Help: "Completed council deliberations",
	})

	ModelFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "council_model_failures_total",
		Help: "Streaming calls that errored, by model",
	}, []string{"model"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "council_stage_duration_seconds",
		Help:    "Wall-clock duration of each deliberation stage",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})
)
