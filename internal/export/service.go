package export

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/greenmantra/backend-store/internal/invoice"
	"github.com/greenmantra/backend-store/internal/lock"
	"github.com/greenmantra/backend-store/internal/obs"
	"github.com/greenmantra/backend-store/internal/order"
	"github.com/greenmantra/backend-store/internal/resilience"
)

const (
	pdfKeyPrefix  = "invoice:pdf:"
	lockKeyPrefix = "invoice:lock:"

	defaultArtifactTTL = 24 * time.Hour
	renderLockTTL      = 45 * time.Second
)

// Metrics groups Prometheus collectors for invoice exports.
type Metrics struct {
	Renders   *prometheus.CounterVec
	CacheHits prometheus.Counter
}

// NewMetrics registers and returns export metrics collectors.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_renders_total",
			Help:      "Invoice PDF render attempts by outcome.",
		}, []string{"outcome"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_pdf_cache_hits_total",
			Help:      "Invoice PDF downloads served from the Redis artifact cache.",
		}),
	}
	reg.MustRegister(m.Renders, m.CacheHits)
	return m
}

// Service builds invoice documents for orders and materializes them as PDF
// artifacts.
type Service struct {
	Issuer   invoice.Issuer
	Renderer Renderer
	Redis    *redis.Client
	Locker   lock.Locker
	Breaker  *resilience.Breaker
	TTL      time.Duration
	Metrics  *Metrics
	Log      zerolog.Logger
}

// Document assembles the invoice document from the order's stored snapshot.
func (s *Service) Document(o order.Order) invoice.Document {
	return invoice.Build(o, o.Totals(), s.Issuer)
}

// HTML renders the receipt view for an order.
func (s *Service) HTML(o order.Order, autoPrint bool) (string, error) {
	return invoice.RenderHTML(s.Document(o), invoice.RenderOptions{AutoPrint: autoPrint})
}

// PDF returns the invoice PDF for an order, serving from the artifact cache
// when possible. Concurrent requests for the same order render once: the
// first holder renders and caches, later holders find the cached artifact
// after acquiring the lock.
func (s *Service) PDF(ctx context.Context, o order.Order) ([]byte, error) {
	if s.Renderer == nil {
		return nil, errors.New("export: renderer not configured")
	}
	key := pdfKeyPrefix + o.ID

	if data, ok := s.cached(ctx, key); ok {
		if s.Metrics != nil {
			s.Metrics.CacheHits.Inc()
		}
		return data, nil
	}

	var pdf []byte
	render := func(ctx context.Context) error {
		if data, ok := s.cached(ctx, key); ok {
			if s.Metrics != nil {
				s.Metrics.CacheHits.Inc()
			}
			pdf = data
			return nil
		}
		html, err := s.HTML(o, false)
		if err != nil {
			return err
		}
		if s.Breaker != nil && !s.Breaker.Allow(ctx) {
			return resilience.ErrOpenCircuit
		}
		start := time.Now()
		data, err := s.Renderer.RenderPDF(ctx, html)
		if s.Breaker != nil {
			s.Breaker.Report(ctx, err == nil)
		}
		if obs.InvoiceRenderLatency != nil {
			obs.InvoiceRenderLatency.WithLabelValues("pdf").Observe(obs.DurationMillis(time.Since(start)))
		}
		if err != nil {
			return err
		}
		pdf = data
		s.store(ctx, key, data)
		return nil
	}

	var err error
	if s.Locker.R != nil {
		err = s.Locker.WithLock(ctx, lockKeyPrefix+o.ID, renderLockTTL, render)
	} else {
		err = render(ctx)
	}
	if err != nil {
		if s.Metrics != nil {
			s.Metrics.Renders.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	if s.Metrics != nil {
		s.Metrics.Renders.WithLabelValues("ok").Inc()
	}
	return pdf, nil
}

// Invalidate drops the cached artifact for an order.
func (s *Service) Invalidate(ctx context.Context, orderID string) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Del(ctx, pdfKeyPrefix+orderID).Err()
}

func (s *Service) cached(ctx context.Context, key string) ([]byte, bool) {
	if s.Redis == nil {
		return nil, false
	}
	data, err := s.Redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.Log.Warn().Err(err).Str("key", key).Msg("invoice artifact cache read failed")
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}
	return data, true
}

func (s *Service) store(ctx context.Context, key string, data []byte) {
	if s.Redis == nil {
		return
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = defaultArtifactTTL
	}
	if err := s.Redis.Set(ctx, key, data, ttl).Err(); err != nil {
		s.Log.Warn().Err(err).Str("key", key).Msg("invoice artifact cache write failed")
	}
}
