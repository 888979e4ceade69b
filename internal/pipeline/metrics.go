package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resolves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filterlab_pipeline_resolves_total",
		Help: "Variant resolutions by tag.",
	}, []string{"tag"})

	computations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filterlab_pipeline_computations_total",
		Help: "Transform applications by tag.",
	}, []string{"tag"})

	failures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filterlab_pipeline_failures_total",
		Help: "Failed transform applications by tag.",
	}, []string{"tag"})

	transformDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "filterlab_transform_duration_seconds",
		Help:    "Time spent applying a transform.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
	}, []string{"tag"})

	pipelines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "filterlab_pipelines",
		Help: "Live pipelines held by registries.",
	})
)
