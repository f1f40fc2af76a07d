package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType vocabulario canónico de movimientos del ledger.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementTypeReceipt     MovementType = "RECEIPT"      // entrada por GRN
	MovementTypeIssue       MovementType = "ISSUE"        // salida por venta/POS
	MovementTypeTransferOut MovementType = "TRANSFER_OUT" // salida de la bodega origen
	MovementTypeTransferIn  MovementType = "TRANSFER_IN"  // entrada en la bodega destino
	MovementTypeAdjustment  MovementType = "ADJUSTMENT"   // ajuste administrativo (+/-)
	MovementTypeReturn      MovementType = "RETURN"       // devolución de cliente

	reversalSuffix = "_REVERSAL"
)

var baseMovementTypes = map[MovementType]struct{}{
	MovementTypeReceipt:     {},
	MovementTypeIssue:       {},
	MovementTypeTransferOut: {},
	MovementTypeTransferIn:  {},
	MovementTypeAdjustment:  {},
	MovementTypeReturn:      {},
}

// Valid indica si el tipo pertenece al vocabulario (incluye los *_REVERSAL).
func (t MovementType) Valid() bool {
	_, ok := baseMovementTypes[MovementType(strings.TrimSuffix(string(t), reversalSuffix))]
	return ok
}

// IsReversal indica si el movimiento anula a otro.
func (t MovementType) IsReversal() bool {
	return strings.HasSuffix(string(t), reversalSuffix)
}

// Reversal devuelve el tipo de anulación (RECEIPT -> RECEIPT_REVERSAL).
func (t MovementType) Reversal() MovementType {
	if t.IsReversal() {
		return t
	}
	return t + reversalSuffix
}

// DocumentType documento de negocio que causa un movimiento.
type DocumentType string

const (
	DocumentTypeGRN        DocumentType = "GRN"
	DocumentTypeSale       DocumentType = "SALE"
	DocumentTypeTransfer   DocumentType = "TRANSFER"
	DocumentTypeAdjustment DocumentType = "ADJUSTMENT"
	DocumentTypeReturn     DocumentType = "RETURN"
)

// Valid indica si el tipo de documento es conocido.
func (d DocumentType) Valid() bool {
	switch d {
	case DocumentTypeGRN, DocumentTypeSale, DocumentTypeTransfer, DocumentTypeAdjustment, DocumentTypeReturn:
		return true
	}
	return false
}

// Reference documento (tipo, id) que originó el movimiento.
type Reference struct {
	DocumentType DocumentType
	DocumentID   string
}

// StockMovement fila inmutable del ledger. Quantity es el delta con signo:
// positivo aumenta el stock, negativo lo disminuye. Nunca se actualiza ni se borra.
type StockMovement struct {
	ID          string
	Seq         int64 // orden de inserción; cursor de paginación
	ProductID   string
	WarehouseID string
	BinID       string
	BatchID     string
	Quantity    decimal.Decimal
	Type        MovementType
	Reference   Reference
	UnitCost    *decimal.Decimal
	Notes       string
	Override    bool // permitió dejar la llave en negativo (ajuste con override)
	CreatedBy   string
	CreatedAt   time.Time
}

// Key llave de stock a la que pertenece el movimiento.
func (m *StockMovement) Key() StockKey {
	return StockKey{ProductID: m.ProductID, WarehouseID: m.WarehouseID, BatchID: m.BatchID}
}
