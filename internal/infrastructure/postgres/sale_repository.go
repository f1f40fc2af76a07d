package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo ventas sobre sales / sale_lines.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Save inserta o actualiza la venta y reemplaza sus líneas.
func (r *SaleRepo) Save(ctx context.Context, s *entity.Sale) error {
	err := upsertHeader(ctx, r.q, "sales", &s.DocumentHeader,
		[]string{"warehouse_id", "customer_ref"}, s.WarehouseID, s.CustomerRef)
	if err != nil {
		return err
	}
	rows := make([][]any, 0, len(s.Lines))
	for _, l := range s.Lines {
		rows = append(rows, []any{l.ID, l.ProductID, l.BatchID, l.BinID, l.Quantity, nullIfEmpty(l.MovementID)})
	}
	return replaceLines(ctx, r.q, "sale_lines", "sale_id", s.ID,
		[]string{"id", "product_id", "batch_id", "bin_id", "quantity", "movement_id"}, rows)
}

// GetByID obtiene la venta con sus líneas; nil si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, "id", id, false)
}

// GetForUpdate obtiene y bloquea la venta (también la usan las devoluciones).
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, "id", id, true)
}

// GetByNumberForUpdate obtiene y bloquea por número.
func (r *SaleRepo) GetByNumberForUpdate(ctx context.Context, number string) (*entity.Sale, error) {
	return r.get(ctx, "number", number, true)
}

func (r *SaleRepo) get(ctx context.Context, col, val string, forUpdate bool) (*entity.Sale, error) {
	var s entity.Sale
	row := r.q.QueryRow(ctx, `SELECT `+headerColumns+`, warehouse_id, customer_ref
		FROM sales WHERE `+col+` = $1`+lockClause(forUpdate), val)
	found, err := scanHeader(row, append(headerTargets(&s.DocumentHeader), &s.WarehouseID, &s.CustomerRef))
	if err != nil || !found {
		return nil, err
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, product_id, batch_id, bin_id, quantity, COALESCE(movement_id, '')
		FROM sale_lines WHERE sale_id = $1 ORDER BY line_no`, s.ID)
	if err != nil {
		return nil, mapError("list sale_lines", err)
	}
	s.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.SaleLine, error) {
		var l entity.SaleLine
		err := row.Scan(&l.ID, &l.ProductID, &l.BatchID, &l.BinID, &l.Quantity, &l.MovementID)
		return l, err
	})
	if err != nil {
		return nil, mapError("scan sale_lines", err)
	}
	return &s, nil
}
