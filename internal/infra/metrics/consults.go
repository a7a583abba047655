package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		consultsStartedTotal,
		consultResetsTotal,
		documentsIngestedTotal,
	)
}

var (
	consultsStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "consults_started_total",
			Help: "Consult sessions created.",
		},
	)

	consultResetsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "consult_resets_total",
			Help: "New-patient resets performed.",
		},
	)

	documentsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_ingested_total",
			Help: "Documents extracted into session buffers, by kind (history/labs).",
		},
		[]string{"kind"},
	)
)

func ConsultStarted() { consultsStartedTotal.Inc() }

func ConsultReset() { consultResetsTotal.Inc() }

func DocumentIngested(kind string) {
	documentsIngestedTotal.WithLabelValues(norm(kind)).Inc()
}
