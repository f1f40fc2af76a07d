package entity

import "github.com/shopspring/decimal"

// Adjustment corrección administrativa de una sola llave. Quantity lleva signo.
// Override permite dejar la llave en negativo; queda registrado en el movimiento.
type Adjustment struct {
	DocumentHeader
	ProductID   string
	WarehouseID string
	BatchID     string
	BinID       string
	Quantity    decimal.Decimal
	UnitCost    *decimal.Decimal
	ReasonCode  string
	Override    bool
	MovementID  string
}
