package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrderIngestTotal counts order ingestion outcomes.
	OrderIngestTotal *prometheus.CounterVec
	// InvoiceRenderLatency records invoice render latency in milliseconds by mode.
	InvoiceRenderLatency *prometheus.HistogramVec
	// PrintFallbackTotal counts downloads that fell back to the print view.
	PrintFallbackTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrderIngestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_ingest_total",
			Help:      "Count of order ingestion outcomes.",
		}, []string{"result"})
		InvoiceRenderLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invoice_render_latency_ms",
			Help:      "Invoice render latency distribution in milliseconds.",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"mode"})
		PrintFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_print_fallback_total",
			Help:      "Downloads redirected to the print view after a render failure.",
		})
		reg.MustRegister(OrderIngestTotal, InvoiceRenderLatency, PrintFallbackTotal)
	})
}
