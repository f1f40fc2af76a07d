package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// GoodsReceipt nota de recepción de mercancía (GRN) hacia una bodega destino.
type GoodsReceipt struct {
	DocumentHeader
	WarehouseID string
	SupplierRef string
	Lines       []GoodsReceiptLine
}

// GoodsReceiptLine línea de la GRN. Si BatchNumber no es vacío se crea o incrementa el lote.
type GoodsReceiptLine struct {
	ID              string
	ProductID       string
	BinID           string
	Quantity        decimal.Decimal
	UnitCost        *decimal.Decimal
	BatchNumber     string
	ManufactureDate *time.Time
	ExpiryDate      *time.Time
	BatchID         string // asignado al confirmar
	MovementID      string // movimiento RECEIPT producido
}
