package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LedgerRepository puerto del ledger de movimientos (append-only).
// No existe Update ni Delete: las correcciones son movimientos de reverso.
type LedgerRepository interface {
	// Append inserta el lote completo en la transacción del llamador; asigna ID, Seq y CreatedAt.
	// Si algún borrador es inválido no se inserta ninguno (ErrInvalidMovement).
	Append(ctx context.Context, movements []*entity.StockMovement) error
	// SumBalance recalcula el saldo de la llave sumando el ledger.
	SumBalance(ctx context.Context, key entity.StockKey) (decimal.Decimal, error)
	// ListByKey movimientos de la llave con Seq > afterSeq, ascendente.
	ListByKey(ctx context.Context, key entity.StockKey, afterSeq int64, limit int) ([]*entity.StockMovement, error)
	// ListByReference movimientos de un documento con Seq > afterSeq, ascendente.
	ListByReference(ctx context.Context, ref entity.Reference, afterSeq int64, limit int) ([]*entity.StockMovement, error)
	// ListOverrides movimientos que usaron override de saldo negativo (auditoría).
	ListOverrides(ctx context.Context, afterSeq int64, limit int) ([]*entity.StockMovement, error)
	// ListKeys llaves distintas presentes en el ledger.
	ListKeys(ctx context.Context) ([]entity.StockKey, error)
}
