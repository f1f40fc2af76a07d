package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.SaleReturnRepository = (*SaleReturnRepo)(nil)

// SaleReturnRepo devoluciones sobre sale_returns / sale_return_lines.
type SaleReturnRepo struct {
	q Querier
}

// NewSaleReturnRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleReturnRepository(q Querier) *SaleReturnRepo {
	return &SaleReturnRepo{q: q}
}

// Save inserta o actualiza la devolución y reemplaza sus líneas.
func (r *SaleReturnRepo) Save(ctx context.Context, ret *entity.SaleReturn) error {
	err := upsertHeader(ctx, r.q, "sale_returns", &ret.DocumentHeader,
		[]string{"sale_id", "warehouse_id", "reason"}, ret.SaleID, ret.WarehouseID, ret.Reason)
	if err != nil {
		return err
	}
	rows := make([][]any, 0, len(ret.Lines))
	for _, l := range ret.Lines {
		rows = append(rows, []any{l.ID, l.SaleLineID, l.ProductID, l.BatchID, l.Quantity, nullIfEmpty(l.MovementID)})
	}
	return replaceLines(ctx, r.q, "sale_return_lines", "return_id", ret.ID,
		[]string{"id", "sale_line_id", "product_id", "batch_id", "quantity", "movement_id"}, rows)
}

// GetByID obtiene la devolución; nil si no existe.
func (r *SaleReturnRepo) GetByID(ctx context.Context, id string) (*entity.SaleReturn, error) {
	return r.get(ctx, "id", id, false)
}

// GetForUpdate obtiene y bloquea la devolución.
func (r *SaleReturnRepo) GetForUpdate(ctx context.Context, id string) (*entity.SaleReturn, error) {
	return r.get(ctx, "id", id, true)
}

// GetByNumberForUpdate obtiene y bloquea por número.
func (r *SaleReturnRepo) GetByNumberForUpdate(ctx context.Context, number string) (*entity.SaleReturn, error) {
	return r.get(ctx, "number", number, true)
}

// ListConfirmedBySale devoluciones confirmadas de la venta, por fecha de creación.
func (r *SaleReturnRepo) ListConfirmedBySale(ctx context.Context, saleID string) ([]*entity.SaleReturn, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id FROM sale_returns WHERE sale_id = $1 AND status = $2 ORDER BY created_at`,
		saleID, string(entity.DocumentStatusConfirmed))
	if err != nil {
		return nil, mapError("list sale_returns", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, mapError("scan sale_returns", err)
	}
	out := make([]*entity.SaleReturn, 0, len(ids))
	for _, id := range ids {
		ret, err := r.get(ctx, "id", id, false)
		if err != nil {
			return nil, err
		}
		if ret != nil {
			out = append(out, ret)
		}
	}
	return out, nil
}

func (r *SaleReturnRepo) get(ctx context.Context, col, val string, forUpdate bool) (*entity.SaleReturn, error) {
	var ret entity.SaleReturn
	row := r.q.QueryRow(ctx, `SELECT `+headerColumns+`, sale_id, warehouse_id, reason
		FROM sale_returns WHERE `+col+` = $1`+lockClause(forUpdate), val)
	found, err := scanHeader(row, append(headerTargets(&ret.DocumentHeader), &ret.SaleID, &ret.WarehouseID, &ret.Reason))
	if err != nil || !found {
		return nil, err
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, sale_line_id, product_id, batch_id, quantity, COALESCE(movement_id, '')
		FROM sale_return_lines WHERE return_id = $1 ORDER BY line_no`, ret.ID)
	if err != nil {
		return nil, mapError("list sale_return_lines", err)
	}
	ret.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.SaleReturnLine, error) {
		var l entity.SaleReturnLine
		err := row.Scan(&l.ID, &l.SaleLineID, &l.ProductID, &l.BatchID, &l.Quantity, &l.MovementID)
		return l, err
	})
	if err != nil {
		return nil, mapError("scan sale_return_lines", err)
	}
	return &ret, nil
}
