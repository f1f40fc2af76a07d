package entity

import "github.com/shopspring/decimal"

// Transfer traslado entre bodegas. Cada línea produce un par TRANSFER_OUT / TRANSFER_IN
// con la misma referencia; la suma de ambos deltas es cero.
type Transfer struct {
	DocumentHeader
	FromWarehouseID string
	ToWarehouseID   string
	Lines           []TransferLine
}

// TransferLine línea del traslado.
type TransferLine struct {
	ID            string
	ProductID     string
	BatchID       string
	Quantity      decimal.Decimal
	OutMovementID string
	InMovementID  string
}
