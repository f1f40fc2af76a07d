package postgres

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)

// AdjustmentRepo ajustes sobre stock_adjustments (una sola llave, sin líneas).
type AdjustmentRepo struct {
	q Querier
}

// NewAdjustmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

var adjustmentColumns = []string{"product_id", "warehouse_id", "batch_id", "bin_id", "quantity", "unit_cost",
	"reason_code", "override", "movement_id"}

// Save inserta o actualiza el ajuste.
func (r *AdjustmentRepo) Save(ctx context.Context, a *entity.Adjustment) error {
	return upsertHeader(ctx, r.q, "stock_adjustments", &a.DocumentHeader, adjustmentColumns,
		a.ProductID, a.WarehouseID, a.BatchID, a.BinID, a.Quantity, a.UnitCost, a.ReasonCode, a.Override, nullIfEmpty(a.MovementID))
}

// GetByID obtiene el ajuste; nil si no existe.
func (r *AdjustmentRepo) GetByID(ctx context.Context, id string) (*entity.Adjustment, error) {
	return r.get(ctx, "id", id, false)
}

// GetForUpdate obtiene y bloquea el ajuste.
func (r *AdjustmentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Adjustment, error) {
	return r.get(ctx, "id", id, true)
}

// GetByNumberForUpdate obtiene y bloquea por número.
func (r *AdjustmentRepo) GetByNumberForUpdate(ctx context.Context, number string) (*entity.Adjustment, error) {
	return r.get(ctx, "number", number, true)
}

func (r *AdjustmentRepo) get(ctx context.Context, col, val string, forUpdate bool) (*entity.Adjustment, error) {
	var a entity.Adjustment
	row := r.q.QueryRow(ctx, `SELECT `+headerColumns+`, product_id, warehouse_id, batch_id, bin_id, quantity,
		unit_cost, reason_code, override, COALESCE(movement_id, '')
		FROM stock_adjustments WHERE `+col+` = $1`+lockClause(forUpdate), val)
	found, err := scanHeader(row, append(headerTargets(&a.DocumentHeader), &a.ProductID, &a.WarehouseID, &a.BatchID,
		&a.BinID, &a.Quantity, &a.UnitCost, &a.ReasonCode, &a.Override, &a.MovementID))
	if err != nil || !found {
		return nil, err
	}
	return &a, nil
}
