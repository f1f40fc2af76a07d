package entity

import "github.com/shopspring/decimal"

// SaleReturn devolución de cliente contra una venta confirmada; reingresa stock (RETURN).
type SaleReturn struct {
	DocumentHeader
	SaleID      string
	WarehouseID string
	Reason      string
	Lines       []SaleReturnLine
}

// SaleReturnLine línea devuelta; SaleLineID apunta a la línea vendida.
type SaleReturnLine struct {
	ID         string
	SaleLineID string
	ProductID  string
	BatchID    string
	Quantity   decimal.Decimal
	MovementID string
}
