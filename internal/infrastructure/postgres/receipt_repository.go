package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.GoodsReceiptRepository = (*GoodsReceiptRepo)(nil)

// GoodsReceiptRepo GRN sobre goods_receipts / goods_receipt_lines.
type GoodsReceiptRepo struct {
	q Querier
}

// NewGoodsReceiptRepository construye el adaptador. Pasar pool o tx (Querier).
func NewGoodsReceiptRepository(q Querier) *GoodsReceiptRepo {
	return &GoodsReceiptRepo{q: q}
}

var receiptLineColumns = []string{"id", "product_id", "bin_id", "quantity", "unit_cost", "batch_number",
	"manufacture_date", "expiry_date", "batch_id", "movement_id"}

// Save inserta o actualiza la GRN y reemplaza sus líneas.
func (r *GoodsReceiptRepo) Save(ctx context.Context, grn *entity.GoodsReceipt) error {
	err := upsertHeader(ctx, r.q, "goods_receipts", &grn.DocumentHeader,
		[]string{"warehouse_id", "supplier_ref"}, grn.WarehouseID, grn.SupplierRef)
	if err != nil {
		return err
	}
	rows := make([][]any, 0, len(grn.Lines))
	for _, l := range grn.Lines {
		rows = append(rows, []any{l.ID, l.ProductID, l.BinID, l.Quantity, l.UnitCost, l.BatchNumber,
			l.ManufactureDate, l.ExpiryDate, l.BatchID, nullIfEmpty(l.MovementID)})
	}
	return replaceLines(ctx, r.q, "goods_receipt_lines", "receipt_id", grn.ID, receiptLineColumns, rows)
}

// GetByID obtiene la GRN con sus líneas; nil si no existe.
func (r *GoodsReceiptRepo) GetByID(ctx context.Context, id string) (*entity.GoodsReceipt, error) {
	return r.get(ctx, "id", id, false)
}

// GetForUpdate obtiene y bloquea la cabecera.
func (r *GoodsReceiptRepo) GetForUpdate(ctx context.Context, id string) (*entity.GoodsReceipt, error) {
	return r.get(ctx, "id", id, true)
}

// GetByNumberForUpdate obtiene y bloquea por número (llave de idempotencia).
func (r *GoodsReceiptRepo) GetByNumberForUpdate(ctx context.Context, number string) (*entity.GoodsReceipt, error) {
	return r.get(ctx, "number", number, true)
}

func (r *GoodsReceiptRepo) get(ctx context.Context, col, val string, forUpdate bool) (*entity.GoodsReceipt, error) {
	var g entity.GoodsReceipt
	row := r.q.QueryRow(ctx, `SELECT `+headerColumns+`, warehouse_id, supplier_ref
		FROM goods_receipts WHERE `+col+` = $1`+lockClause(forUpdate), val)
	found, err := scanHeader(row, append(headerTargets(&g.DocumentHeader), &g.WarehouseID, &g.SupplierRef))
	if err != nil || !found {
		return nil, err
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, product_id, bin_id, quantity, unit_cost, batch_number, manufacture_date, expiry_date, batch_id, COALESCE(movement_id, '')
		FROM goods_receipt_lines WHERE receipt_id = $1 ORDER BY line_no`, g.ID)
	if err != nil {
		return nil, mapError("list goods_receipt_lines", err)
	}
	g.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.GoodsReceiptLine, error) {
		var l entity.GoodsReceiptLine
		err := row.Scan(&l.ID, &l.ProductID, &l.BinID, &l.Quantity, &l.UnitCost, &l.BatchNumber,
			&l.ManufactureDate, &l.ExpiryDate, &l.BatchID, &l.MovementID)
		return l, err
	})
	if err != nil {
		return nil, mapError("scan goods_receipt_lines", err)
	}
	return &g, nil
}
