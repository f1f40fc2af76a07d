package metrics_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/metrics"
)

// sample suma los valores de la familia cuyos labels contienen want.
func sample(t *testing.T, m *metrics.Metrics, name string, want map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			match := true
			for k, v := range want {
				found := false
				for _, lp := range metric.GetLabel() {
					if lp.GetName() == k && lp.GetValue() == v {
						found = true
					}
				}
				match = match && found
			}
			if !match {
				continue
			}
			if c := metric.GetCounter(); c != nil {
				total += c.GetValue()
			}
			if h := metric.GetHistogram(); h != nil {
				total += float64(h.GetSampleCount())
			}
		}
	}
	return total
}

func TestMetrics_ContadoresDelObserver(t *testing.T) {
	m := metrics.New()
	m.MovementsRecorded([]*entity.StockMovement{
		{Type: entity.MovementTypeReceipt, Quantity: decimal.NewFromInt(10)},
		{Type: entity.MovementTypeIssue, Quantity: decimal.NewFromInt(-3)},
		{Type: entity.MovementTypeAdjustment, Quantity: decimal.NewFromInt(-50), Override: true},
	})
	m.DocumentProcessed(entity.DocumentTypeSale, "confirm", "ok")
	m.DocumentProcessed(entity.DocumentTypeSale, "confirm", "insufficient_stock")
	m.ConflictRetry("sale.confirm")
	m.ReconcileDrift(entity.StockKey{ProductID: "P", WarehouseID: "W"}, decimal.NewFromInt(-93))

	assert.Equal(t, 3.0, sample(t, m, "stock_ledger_movements_total", nil))
	assert.Equal(t, 3.0, sample(t, m, "stock_ledger_movement_quantity_total", map[string]string{"movement_type": "ISSUE"}))
	assert.Equal(t, 1.0, sample(t, m, "stock_ledger_override_movements_total", nil))
	assert.Equal(t, 1.0, sample(t, m, "stock_ledger_documents_total", map[string]string{"result": "insufficient_stock"}))
	assert.Equal(t, 1.0, sample(t, m, "stock_ledger_conflict_retries_total", map[string]string{"operation": "sale.confirm"}))
	assert.Equal(t, 1.0, sample(t, m, "stock_ledger_reconcile_drifts_total", nil))
}

func TestMetrics_MiddlewareUsaRutaRegistrada(t *testing.T) {
	m := metrics.New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/api/inventory/sales/:id", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "no existe")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/inventory/sales/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	assert.Equal(t, 1.0, sample(t, m, "stock_ledger_http_requests_total", map[string]string{
		"path":   "/api/inventory/sales/:id",
		"status": "404",
	}))
	assert.Equal(t, 1.0, sample(t, m, "stock_ledger_http_request_duration_seconds", nil))
}

func TestMetrics_HandlerExponeFamilias(t *testing.T) {
	m := metrics.New()
	m.ConflictRetry("receipt.confirm")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "stock_ledger_conflict_retries_total")
}
