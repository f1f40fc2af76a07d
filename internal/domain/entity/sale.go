package entity

import "github.com/shopspring/decimal"

// Sale venta / checkout POS que descuenta stock de una bodega.
type Sale struct {
	DocumentHeader
	WarehouseID string
	CustomerRef string
	Lines       []SaleLine
}

// SaleLine línea de venta.
type SaleLine struct {
	ID         string
	ProductID  string
	BatchID    string
	BinID      string
	Quantity   decimal.Decimal
	MovementID string
}
