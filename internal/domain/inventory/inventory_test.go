package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestWeightedAverageCost_PromedioPonderado(t *testing.T) {
	got := WeightedAverageCost(decimal.NewFromInt(10), decimal.NewFromInt(100), decimal.NewFromInt(30), decimal.NewFromInt(200))
	assert.True(t, got.Equal(decimal.NewFromInt(175)), "esperado 175, obtenido %s", got)

	assert.True(t, WeightedAverageCost(decimal.Zero, decimal.Zero, decimal.Zero, decimal.NewFromInt(5)).IsZero(),
		"sin cantidad el costo es cero")

	third := WeightedAverageCost(decimal.NewFromInt(2), decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.NewFromInt(2))
	assert.Equal(t, "1.3333", third.String())
}

func TestRepresentable_DecimalesYRango(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"10", true},
		{"0.0001", true},
		{"1.50000", true},
		{"-3.25", true},
		{"0.00001", false},
		{"1.00005", false},
		{"99999999999999.9999", true},
		{"100000000000000", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Representable(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestLockOrder_IndependienteDelSentido(t *testing.T) {
	w1 := entity.StockKey{ProductID: "P", WarehouseID: "W1"}
	w2 := entity.StockKey{ProductID: "P", WarehouseID: "W2"}

	ab := LockOrder([]entity.StockKey{w1, w2})
	ba := LockOrder([]entity.StockKey{w2, w1, w2})

	assert.Equal(t, ab, ba)
	assert.Len(t, ba, 2)
	assert.Equal(t, "P|W1|", ba[0].String())
}
