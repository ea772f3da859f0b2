package queue

import "github.com/prometheus/client_golang/prometheus"

var (
	Depth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "invoice_prerender_queue_depth",
			Help: "Approximate number of ready prerender tasks",
		},
	)
	Processed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoice_prerender_processed_total",
			Help: "Total prerender tasks processed grouped by status",
		},
		[]string{"status"},
	)
	DLQSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "invoice_prerender_dlq_size",
			Help: "Number of prerender tasks stored in the dead letter list",
		},
	)
)

func init() {
	prometheus.MustRegister(Depth, Processed, DLQSize)
}
