package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

const namespace = "stock_ledger"

var _ inventory.Observer = (*Metrics)(nil)

// Metrics métricas Prometheus del ledger y del API HTTP, en un registry propio.
type Metrics struct {
	registry *prometheus.Registry

	MovementsTotal      *prometheus.CounterVec
	MovementQuantity    *prometheus.CounterVec
	OverridesTotal      prometheus.Counter
	DocumentsTotal      *prometheus.CounterVec
	ConflictRetries     *prometheus.CounterVec
	ReconcileDrifts     prometheus.Counter
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registra los colectores estándar de Go y de proceso más los del ledger.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.MovementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movements_total",
			Help:      "Movimientos escritos en el ledger",
		},
		[]string{"movement_type"},
	)
	m.MovementQuantity = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movement_quantity_total",
			Help:      "Unidades movidas (valor absoluto) por tipo de movimiento",
		},
		[]string{"movement_type"},
	)
	m.OverridesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "override_movements_total",
			Help:      "Movimientos publicados con override de stock negativo",
		},
	)
	m.DocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Operaciones sobre documentos por resultado",
		},
		[]string{"document", "action", "result"},
	)
	m.ConflictRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflict_retries_total",
			Help:      "Reintentos por conflicto de concurrencia",
		},
		[]string{"operation"},
	)
	m.ReconcileDrifts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_drifts_total",
			Help:      "Saldos corregidos por reconciliación",
		},
	)
	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total de requests HTTP",
		},
		[]string{"method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duración de requests HTTP en segundos",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(
		m.MovementsTotal, m.MovementQuantity, m.OverridesTotal, m.DocumentsTotal,
		m.ConflictRetries, m.ReconcileDrifts, m.HTTPRequestsTotal, m.HTTPRequestDuration,
	)
	return m
}

// Registry expone el registry (pruebas y colectores adicionales).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler endpoint /metrics en formato de exposición Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// MovementsRecorded implementa inventory.Observer.
func (m *Metrics) MovementsRecorded(movs []*entity.StockMovement) {
	for _, mv := range movs {
		t := string(mv.Type)
		m.MovementsTotal.WithLabelValues(t).Inc()
		m.MovementQuantity.WithLabelValues(t).Add(mv.Quantity.Abs().InexactFloat64())
		if mv.Override {
			m.OverridesTotal.Inc()
		}
	}
}

// DocumentProcessed implementa inventory.Observer.
func (m *Metrics) DocumentProcessed(doc entity.DocumentType, action, result string) {
	m.DocumentsTotal.WithLabelValues(string(doc), action, result).Inc()
}

// ConflictRetry implementa inventory.Observer.
func (m *Metrics) ConflictRetry(op string) {
	m.ConflictRetries.WithLabelValues(op).Inc()
}

// ReconcileDrift implementa inventory.Observer.
func (m *Metrics) ReconcileDrift(_ entity.StockKey, _ decimal.Decimal) {
	m.ReconcileDrifts.Inc()
}

// Middleware cuenta requests y mide latencia por ruta registrada (no por URL cruda).
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		path := c.Route().Path
		m.HTTPRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}
