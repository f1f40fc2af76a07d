package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentResponse cabecera común de documentos de inventario.
type DocumentResponse struct {
	ID           string     `json:"id"`
	Number       string     `json:"number"`
	Status       string     `json:"status"`
	Notes        string     `json:"notes,omitempty"`
	CreatedBy    string     `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy  string     `json:"cancelled_by,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
}

// CancelRequest body para POST .../:id/cancel.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// ReceiptRequest body para POST /api/inventory/receipts (GRN).
// Number es la llave de idempotencia; si va vacío se toma el header Idempotency-Key.
type ReceiptRequest struct {
	Number      string               `json:"number,omitempty"`
	WarehouseID string               `json:"warehouse_id"`
	SupplierRef string               `json:"supplier_ref,omitempty"`
	Notes       string               `json:"notes,omitempty"`
	Lines       []ReceiptLineRequest `json:"lines"`
}

// ReceiptLineRequest línea de GRN. BatchNumber opcional: crea o incrementa el lote.
type ReceiptLineRequest struct {
	ProductID       string           `json:"product_id"`
	BinID           string           `json:"bin_id,omitempty"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	BatchNumber     string           `json:"batch_number,omitempty"`
	ManufactureDate *time.Time       `json:"manufacture_date,omitempty"`
	ExpiryDate      *time.Time       `json:"expiry_date,omitempty"`
}

// ReceiptResponse GRN en respuestas.
type ReceiptResponse struct {
	DocumentResponse
	WarehouseID string                `json:"warehouse_id"`
	SupplierRef string                `json:"supplier_ref,omitempty"`
	Lines       []ReceiptLineResponse `json:"lines"`
}

// ReceiptLineResponse línea de GRN con el lote y movimiento resultantes.
type ReceiptLineResponse struct {
	ProductID   string           `json:"product_id"`
	BinID       string           `json:"bin_id,omitempty"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
	BatchNumber string           `json:"batch_number,omitempty"`
	BatchID     string           `json:"batch_id,omitempty"`
	MovementID  string           `json:"movement_id,omitempty"`
}

// SaleRequest body para POST /api/inventory/sales.
type SaleRequest struct {
	Number      string            `json:"number,omitempty"`
	WarehouseID string            `json:"warehouse_id"`
	CustomerRef string            `json:"customer_ref,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	Lines       []SaleLineRequest `json:"lines"`
}

// SaleLineRequest línea de venta.
type SaleLineRequest struct {
	ProductID string          `json:"product_id"`
	BatchID   string          `json:"batch_id,omitempty"`
	BinID     string          `json:"bin_id,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// SaleResponse venta en respuestas.
type SaleResponse struct {
	DocumentResponse
	WarehouseID string             `json:"warehouse_id"`
	CustomerRef string             `json:"customer_ref,omitempty"`
	Lines       []SaleLineResponse `json:"lines"`
}

// SaleLineResponse línea de venta con su movimiento.
type SaleLineResponse struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	BatchID    string          `json:"batch_id,omitempty"`
	BinID      string          `json:"bin_id,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
	MovementID string          `json:"movement_id,omitempty"`
}

// TransferRequest body para POST /api/inventory/transfers.
type TransferRequest struct {
	Number          string                `json:"number,omitempty"`
	FromWarehouseID string                `json:"from_warehouse_id"`
	ToWarehouseID   string                `json:"to_warehouse_id"`
	Notes           string                `json:"notes,omitempty"`
	Lines           []TransferLineRequest `json:"lines"`
}

// TransferLineRequest línea de traslado.
type TransferLineRequest struct {
	ProductID string          `json:"product_id"`
	BatchID   string          `json:"batch_id,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// TransferResponse traslado en respuestas.
type TransferResponse struct {
	DocumentResponse
	FromWarehouseID string                 `json:"from_warehouse_id"`
	ToWarehouseID   string                 `json:"to_warehouse_id"`
	Lines           []TransferLineResponse `json:"lines"`
}

// TransferLineResponse línea de traslado con el par de movimientos.
type TransferLineResponse struct {
	ProductID     string          `json:"product_id"`
	BatchID       string          `json:"batch_id,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	OutMovementID string          `json:"out_movement_id,omitempty"`
	InMovementID  string          `json:"in_movement_id,omitempty"`
}

// AdjustmentRequest body para POST /api/inventory/adjustments. Quantity con signo.
type AdjustmentRequest struct {
	Number      string           `json:"number,omitempty"`
	ProductID   string           `json:"product_id"`
	WarehouseID string           `json:"warehouse_id"`
	BatchID     string           `json:"batch_id,omitempty"`
	BinID       string           `json:"bin_id,omitempty"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
	ReasonCode  string           `json:"reason_code"`
	Notes       string           `json:"notes,omitempty"`
	Override    bool             `json:"override,omitempty"`
}

// AdjustmentResponse ajuste en respuestas.
type AdjustmentResponse struct {
	DocumentResponse
	ProductID   string           `json:"product_id"`
	WarehouseID string           `json:"warehouse_id"`
	BatchID     string           `json:"batch_id,omitempty"`
	BinID       string           `json:"bin_id,omitempty"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
	ReasonCode  string           `json:"reason_code"`
	Override    bool             `json:"override"`
	MovementID  string           `json:"movement_id,omitempty"`
}

// ReturnRequest body para POST /api/inventory/returns (devolución de cliente).
type ReturnRequest struct {
	Number string              `json:"number,omitempty"`
	SaleID string              `json:"sale_id"`
	Reason string              `json:"reason,omitempty"`
	Notes  string              `json:"notes,omitempty"`
	Lines  []ReturnLineRequest `json:"lines"`
}

// ReturnLineRequest cantidad devuelta de una línea de la venta.
type ReturnLineRequest struct {
	SaleLineID string          `json:"sale_line_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// ReturnResponse devolución en respuestas.
type ReturnResponse struct {
	DocumentResponse
	SaleID      string               `json:"sale_id"`
	WarehouseID string               `json:"warehouse_id"`
	Reason      string               `json:"reason,omitempty"`
	Lines       []ReturnLineResponse `json:"lines"`
}

// ReturnLineResponse línea de devolución.
type ReturnLineResponse struct {
	SaleLineID string          `json:"sale_line_id"`
	ProductID  string          `json:"product_id"`
	BatchID    string          `json:"batch_id,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
	MovementID string          `json:"movement_id,omitempty"`
}

// BalanceResponse saldo de una llave para GET /api/inventory/balance.
type BalanceResponse struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	BatchID     string          `json:"batch_id,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// MovementResponse fila del ledger.
type MovementResponse struct {
	ID            string           `json:"id"`
	Seq           int64            `json:"seq"`
	ProductID     string           `json:"product_id"`
	WarehouseID   string           `json:"warehouse_id"`
	BinID         string           `json:"bin_id,omitempty"`
	BatchID       string           `json:"batch_id,omitempty"`
	Quantity      decimal.Decimal  `json:"quantity"`
	Type          string           `json:"type"`
	ReferenceType string           `json:"reference_type"`
	ReferenceID   string           `json:"reference_id"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	Override      bool             `json:"override,omitempty"`
	CreatedBy     string           `json:"created_by"`
	CreatedAt     time.Time        `json:"created_at"`
}

// MovementPageResponse página de historial. NextCursor 0 = no hay más.
type MovementPageResponse struct {
	Items      []MovementResponse `json:"items"`
	NextCursor int64              `json:"next_cursor,omitempty"`
}

// ReconcileRequest body para POST /api/inventory/reconcile. All=true ignora la llave.
type ReconcileRequest struct {
	ProductID   string `json:"product_id,omitempty"`
	WarehouseID string `json:"warehouse_id,omitempty"`
	BatchID     string `json:"batch_id,omitempty"`
	All         bool   `json:"all,omitempty"`
}

// ReconcileResponse resultado por llave.
type ReconcileResponse struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	BatchID     string          `json:"batch_id,omitempty"`
	Previous    decimal.Decimal `json:"previous"`
	Recomputed  decimal.Decimal `json:"recomputed"`
	Drift       decimal.Decimal `json:"drift"`
}

// ShortfallResponse faltante de una línea.
type ShortfallResponse struct {
	Line        int             `json:"line"`
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	BatchID     string          `json:"batch_id,omitempty"`
	Available   decimal.Decimal `json:"available"`
	Requested   decimal.Decimal `json:"requested"`
}

// InsufficientStockResponse cuerpo 409 con el detalle por línea.
type InsufficientStockResponse struct {
	ErrorResponse
	Lines []ShortfallResponse `json:"lines"`
}

// ValidationErrorResponse cuerpo 400 con la línea/campo que falló.
type ValidationErrorResponse struct {
	ErrorResponse
	Line  *int   `json:"line,omitempty"`
	Field string `json:"field,omitempty"`
}
