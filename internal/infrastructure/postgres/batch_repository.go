package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo lotes sobre la tabla batches.
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

const batchColumns = `id, product_id, warehouse_id, lot_number, manufacture_date, expiry_date, unit_cost, quantity, created_at, updated_at`

// GetByID obtiene un lote; nil si no existe.
func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.Batch, error) {
	return r.scan(r.q.QueryRow(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = $1`, id))
}

// GetByLotForUpdate busca por producto+bodega+número de lote y bloquea la fila.
func (r *BatchRepo) GetByLotForUpdate(ctx context.Context, productID, warehouseID, lotNumber string) (*entity.Batch, error) {
	return r.scan(r.q.QueryRow(ctx, `
		SELECT `+batchColumns+` FROM batches
		WHERE product_id = $1 AND warehouse_id = $2 AND lot_number = $3
		FOR UPDATE`, productID, warehouseID, lotNumber))
}

// Create inserta el lote. Un lote concurrente con el mismo número es ErrConflict (se reintenta
// la transacción y en el siguiente intento se encuentra y se incrementa).
func (r *BatchRepo) Create(ctx context.Context, b *entity.Batch) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO batches (`+batchColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID, b.ProductID, b.WarehouseID, b.LotNumber, b.ManufactureDate, b.ExpiryDate,
		b.UnitCost, b.Quantity, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return mapError("insert batch", err)
	}
	return nil
}

// UpdateReceived actualiza cantidad recibida y costo promedio.
func (r *BatchRepo) UpdateReceived(ctx context.Context, id string, quantity, unitCost decimal.Decimal) error {
	_, err := r.q.Exec(ctx, `
		UPDATE batches SET quantity = $2, unit_cost = $3, updated_at = now() WHERE id = $1`,
		id, quantity, unitCost)
	if err != nil {
		return mapError("update batch", err)
	}
	return nil
}

func (r *BatchRepo) scan(row pgx.Row) (*entity.Batch, error) {
	var b entity.Batch
	err := row.Scan(&b.ID, &b.ProductID, &b.WarehouseID, &b.LotNumber, &b.ManufactureDate, &b.ExpiryDate,
		&b.UnitCost, &b.Quantity, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get batch", err)
	}
	return &b, nil
}
