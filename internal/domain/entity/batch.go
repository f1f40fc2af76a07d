package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch lote de un producto en una bodega (número de lote único por producto+bodega).
// Quantity acumula lo recibido por GRN; el saldo disponible vive en el ledger.
type Batch struct {
	ID              string
	ProductID       string
	WarehouseID     string
	LotNumber       string
	ManufactureDate *time.Time
	ExpiryDate      *time.Time
	UnitCost        decimal.Decimal
	Quantity        decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
