package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo traslados sobre stock_transfers / stock_transfer_lines.
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

// Save inserta o actualiza el traslado y reemplaza sus líneas.
func (r *TransferRepo) Save(ctx context.Context, t *entity.Transfer) error {
	err := upsertHeader(ctx, r.q, "stock_transfers", &t.DocumentHeader,
		[]string{"from_warehouse_id", "to_warehouse_id"}, t.FromWarehouseID, t.ToWarehouseID)
	if err != nil {
		return err
	}
	rows := make([][]any, 0, len(t.Lines))
	for _, l := range t.Lines {
		rows = append(rows, []any{l.ID, l.ProductID, l.BatchID, l.Quantity, nullIfEmpty(l.OutMovementID), nullIfEmpty(l.InMovementID)})
	}
	return replaceLines(ctx, r.q, "stock_transfer_lines", "transfer_id", t.ID,
		[]string{"id", "product_id", "batch_id", "quantity", "out_movement_id", "in_movement_id"}, rows)
}

// GetByID obtiene el traslado; nil si no existe.
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.get(ctx, "id", id, false)
}

// GetForUpdate obtiene y bloquea el traslado.
func (r *TransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.get(ctx, "id", id, true)
}

// GetByNumberForUpdate obtiene y bloquea por número.
func (r *TransferRepo) GetByNumberForUpdate(ctx context.Context, number string) (*entity.Transfer, error) {
	return r.get(ctx, "number", number, true)
}

func (r *TransferRepo) get(ctx context.Context, col, val string, forUpdate bool) (*entity.Transfer, error) {
	var t entity.Transfer
	row := r.q.QueryRow(ctx, `SELECT `+headerColumns+`, from_warehouse_id, to_warehouse_id
		FROM stock_transfers WHERE `+col+` = $1`+lockClause(forUpdate), val)
	found, err := scanHeader(row, append(headerTargets(&t.DocumentHeader), &t.FromWarehouseID, &t.ToWarehouseID))
	if err != nil || !found {
		return nil, err
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, product_id, batch_id, quantity, COALESCE(out_movement_id, ''), COALESCE(in_movement_id, '')
		FROM stock_transfer_lines WHERE transfer_id = $1 ORDER BY line_no`, t.ID)
	if err != nil {
		return nil, mapError("list stock_transfer_lines", err)
	}
	t.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.TransferLine, error) {
		var l entity.TransferLine
		err := row.Scan(&l.ID, &l.ProductID, &l.BatchID, &l.Quantity, &l.OutMovementID, &l.InMovementID)
		return l, err
	})
	if err != nil {
		return nil, mapError("scan stock_transfer_lines", err)
	}
	return &t, nil
}
