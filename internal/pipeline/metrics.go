package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ats_pipeline_runs_total",
		Help: "Analysis pipeline runs by variant and final state.",
	}, []string{"variant", "state"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ats_pipeline_stage_duration_seconds",
		Help:    "Time spent in each pipeline stage.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"stage"})
)
