package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockKey identifica un saldo: producto + bodega (+ lote opcional).
type StockKey struct {
	ProductID   string
	WarehouseID string
	BatchID     string // vacío = sin lote
}

// String forma canónica "producto|bodega|lote"; define el orden global de bloqueo.
func (k StockKey) String() string {
	return k.ProductID + "|" + k.WarehouseID + "|" + k.BatchID
}

// StockBalance saldo cacheado de una llave. Es derivable del ledger:
// Quantity == SUM(stock_movements.quantity) para la misma llave.
type StockBalance struct {
	Key       StockKey
	Quantity  decimal.Decimal
	UpdatedAt time.Time
}
