package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	dominv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// MovementOp movimiento a publicar: delta con signo sobre una llave.
type MovementOp struct {
	Line      int // índice de línea del documento (para reportar faltantes)
	Key       entity.StockKey
	BinID     string
	Delta     decimal.Decimal
	Type      entity.MovementType
	Reference entity.Reference
	UnitCost  *decimal.Decimal
	Notes     string
	Override  bool // permite dejar la llave en negativo
	CreatedBy string
}

// Recorder único camino de escritura al ledger: valida, bloquea, verifica saldo,
// inserta movimientos y actualiza el caché, todo en la transacción del llamador.
type Recorder struct {
	guard    *Guard
	balances *BalanceCalculator
	log      *logger.Logger
	now      func() time.Time
}

// Record publica ops de forma atómica. Los movimientos devueltos siguen el orden de ops.
// Si alguna línea dejaría su llave en negativo (sin override) no se escribe nada y se
// devuelve InsufficientStockError con todas las líneas faltantes.
func (r *Recorder) Record(ctx context.Context, tx TxRepos, ops []MovementOp) ([]*entity.StockMovement, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("%w: sin movimientos", domain.ErrInvalidMovement)
	}
	keys := make([]entity.StockKey, 0, len(ops))
	for i, op := range ops {
		if err := validateOp(op); err != nil {
			return nil, fmt.Errorf("%w: movimiento %d: %s", domain.ErrInvalidMovement, i, err.Error())
		}
		keys = append(keys, op.Key)
	}

	current, err := r.guard.LockRows(ctx, tx.Balances, keys)
	if err != nil {
		return nil, err
	}

	running := make(map[string]decimal.Decimal, len(current))
	for k, v := range current {
		running[k] = v
	}
	var short []domain.StockShortfall
	for _, op := range ops {
		k := op.Key.String()
		next := running[k].Add(op.Delta)
		if op.Delta.IsNegative() && next.IsNegative() && !op.Override {
			avail := running[k]
			if avail.IsNegative() {
				avail = decimal.Zero
			}
			short = append(short, domain.StockShortfall{
				Line:        op.Line,
				ProductID:   op.Key.ProductID,
				WarehouseID: op.Key.WarehouseID,
				BatchID:     op.Key.BatchID,
				Available:   avail,
				Requested:   op.Delta.Neg(),
			})
			continue
		}
		running[k] = next
	}
	if len(short) > 0 {
		return nil, &domain.InsufficientStockError{Lines: short}
	}

	now := r.now()
	movs := make([]*entity.StockMovement, 0, len(ops))
	deltas := make(map[string]decimal.Decimal, len(keys))
	for _, op := range ops {
		m := &entity.StockMovement{
			ID:          uuid.New().String(),
			ProductID:   op.Key.ProductID,
			WarehouseID: op.Key.WarehouseID,
			BinID:       op.BinID,
			BatchID:     op.Key.BatchID,
			Quantity:    op.Delta,
			Type:        op.Type,
			Reference:   op.Reference,
			UnitCost:    op.UnitCost,
			Notes:       op.Notes,
			Override:    op.Override,
			CreatedBy:   op.CreatedBy,
			CreatedAt:   now,
		}
		movs = append(movs, m)
		deltas[op.Key.String()] = deltas[op.Key.String()].Add(op.Delta)
		if op.Override && running[op.Key.String()].IsNegative() {
			r.log.Warn().Str("product_id", op.Key.ProductID).Str("warehouse_id", op.Key.WarehouseID).
				Str("batch_id", op.Key.BatchID).Str("created_by", op.CreatedBy).
				Str("reference", string(op.Reference.DocumentType)+":"+op.Reference.DocumentID).
				Msg("override: saldo negativo permitido")
		}
	}

	if err := tx.Ledger.Append(ctx, movs); err != nil {
		return nil, err
	}
	for _, k := range dominv.LockOrder(keys) {
		d := deltas[k.String()]
		if d.IsZero() {
			continue
		}
		if err := r.balances.applyDelta(ctx, tx, k, d); err != nil {
			return nil, err
		}
	}
	return movs, nil
}

// Reverse publica el inverso de cada movimiento original del documento (los reversos
// ya publicados no se vuelven a invertir). Hereda BinID, costo y override del original.
func (r *Recorder) Reverse(ctx context.Context, tx TxRepos, ref entity.Reference, by, notes string) ([]*entity.StockMovement, error) {
	var originals []*entity.StockMovement
	var cursor int64
	for {
		page, err := tx.Ledger.ListByReference(ctx, ref, cursor, 500)
		if err != nil {
			return nil, err
		}
		for _, m := range page {
			if m.Type.IsReversal() {
				return nil, fmt.Errorf("%w: el documento %s ya tiene reversos", domain.ErrInvalidState, ref.DocumentID)
			}
			originals = append(originals, m)
		}
		if len(page) < 500 {
			break
		}
		cursor = page[len(page)-1].Seq
	}
	if len(originals) == 0 {
		return nil, nil
	}

	ops := make([]MovementOp, 0, len(originals))
	for i, m := range originals {
		ops = append(ops, MovementOp{
			Line:      i,
			Key:       m.Key(),
			BinID:     m.BinID,
			Delta:     m.Quantity.Neg(),
			Type:      m.Type.Reversal(),
			Reference: ref,
			UnitCost:  m.UnitCost,
			Notes:     notes,
			Override:  m.Override,
			CreatedBy: by,
		})
	}
	return r.Record(ctx, tx, ops)
}

func validateOp(op MovementOp) error {
	switch {
	case op.Key.ProductID == "" || op.Key.WarehouseID == "":
		return fmt.Errorf("producto y bodega son requeridos")
	case op.Delta.IsZero():
		return fmt.Errorf("la cantidad no puede ser cero")
	case !op.Type.Valid():
		return fmt.Errorf("tipo %q desconocido", op.Type)
	case !op.Reference.DocumentType.Valid() || op.Reference.DocumentID == "":
		return fmt.Errorf("referencia de documento inválida")
	case op.CreatedBy == "":
		return fmt.Errorf("usuario requerido")
	}
	return nil
}
