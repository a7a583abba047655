package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		pipelineStageLatencyMs,
		pipelineInvocationsTotal,
	)
}

var (
	pipelineStageLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_latency_ms",
			Help:    "Completion latency distribution per pipeline stage in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000},
		},
		[]string{"stage", "success"},
	)

	pipelineInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_invocations_total",
			Help: "Diagnosis pipeline invocations by outcome.",
		},
		[]string{"success"},
	)
)

func ObserveStage(stage string, latencyMs int64, success bool) {
	pipelineStageLatencyMs.WithLabelValues(norm(stage), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func PipelineInvoked(success bool) {
	pipelineInvocationsTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
}
