package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo ledger de movimientos sobre stock_movements. Solo INSERT y SELECT.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

const movementColumns = `id, seq, product_id, warehouse_id, bin_id, batch_id, quantity, movement_type,
	reference_type, reference_id, unit_cost, notes, override, created_by, created_at`

// overrideLockKey candado de transacción que serializa los movimientos con override.
const overrideLockKey int64 = 0x5354_4b4f_5652 // "STKOVR"

// Append inserta los movimientos en orden; seq y created_at los asigna la BD.
// Si el lote trae overrides toma antes pg_advisory_xact_lock: así el seq de los overrides
// sigue el orden de commit y el cursor de ListOverrides no salta filas.
func (r *LedgerRepo) Append(ctx context.Context, movements []*entity.StockMovement) error {
	override := false
	for i, m := range movements {
		if m.ProductID == "" || m.WarehouseID == "" || m.Quantity.IsZero() || !m.Type.Valid() {
			return fmt.Errorf("%w: movimiento %d", domain.ErrInvalidMovement, i)
		}
		override = override || m.Override
	}
	if override {
		if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, overrideLockKey); err != nil {
			return mapError("lock override sequence", err)
		}
	}
	query := `
		INSERT INTO stock_movements (id, product_id, warehouse_id, bin_id, batch_id, quantity, movement_type,
			reference_type, reference_id, unit_cost, notes, override, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, COALESCE($14, now()))
		RETURNING seq, created_at`
	for _, m := range movements {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		var createdAt any
		if !m.CreatedAt.IsZero() {
			createdAt = m.CreatedAt
		}
		err := r.q.QueryRow(ctx, query,
			m.ID, m.ProductID, m.WarehouseID, m.BinID, m.BatchID, m.Quantity, string(m.Type),
			string(m.Reference.DocumentType), m.Reference.DocumentID, m.UnitCost, m.Notes, m.Override,
			m.CreatedBy, createdAt,
		).Scan(&m.Seq, &m.CreatedAt)
		if err != nil {
			return mapError("insert stock movement", err)
		}
	}
	return nil
}

// SumBalance suma el ledger de la llave.
func (r *LedgerRepo) SumBalance(ctx context.Context, key entity.StockKey) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM stock_movements
		WHERE product_id = $1 AND warehouse_id = $2 AND batch_id = $3`,
		key.ProductID, key.WarehouseID, key.BatchID,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, mapError("sum stock movements", err)
	}
	return sum, nil
}

// ListByKey movimientos de la llave con seq > afterSeq.
func (r *LedgerRepo) ListByKey(ctx context.Context, key entity.StockKey, afterSeq int64, limit int) ([]*entity.StockMovement, error) {
	return r.list(ctx, `
		SELECT `+movementColumns+` FROM stock_movements
		WHERE product_id = $1 AND warehouse_id = $2 AND batch_id = $3 AND seq > $4
		ORDER BY seq LIMIT $5`,
		key.ProductID, key.WarehouseID, key.BatchID, afterSeq, limit)
}

// ListByReference movimientos del documento con seq > afterSeq.
func (r *LedgerRepo) ListByReference(ctx context.Context, ref entity.Reference, afterSeq int64, limit int) ([]*entity.StockMovement, error) {
	return r.list(ctx, `
		SELECT `+movementColumns+` FROM stock_movements
		WHERE reference_type = $1 AND reference_id = $2 AND seq > $3
		ORDER BY seq LIMIT $4`,
		string(ref.DocumentType), ref.DocumentID, afterSeq, limit)
}

// ListOverrides movimientos con override (auditoría). El cursor es estable porque Append
// serializa los overrides.
func (r *LedgerRepo) ListOverrides(ctx context.Context, afterSeq int64, limit int) ([]*entity.StockMovement, error) {
	return r.list(ctx, `
		SELECT `+movementColumns+` FROM stock_movements
		WHERE override AND seq > $1
		ORDER BY seq LIMIT $2`,
		afterSeq, limit)
}

// ListKeys llaves distintas del ledger.
func (r *LedgerRepo) ListKeys(ctx context.Context) ([]entity.StockKey, error) {
	rows, err := r.q.Query(ctx, `
		SELECT DISTINCT product_id, warehouse_id, batch_id FROM stock_movements
		ORDER BY product_id, warehouse_id, batch_id`)
	if err != nil {
		return nil, mapError("list stock keys", err)
	}
	keys, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.StockKey, error) {
		var k entity.StockKey
		err := row.Scan(&k.ProductID, &k.WarehouseID, &k.BatchID)
		return k, err
	})
	if err != nil {
		return nil, mapError("scan stock keys", err)
	}
	return keys, nil
}

func (r *LedgerRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list stock movements", err)
	}
	out, err := pgx.CollectRows(rows, scanMovement)
	if err != nil {
		return nil, mapError("scan stock movements", err)
	}
	return out, nil
}

func scanMovement(row pgx.CollectableRow) (*entity.StockMovement, error) {
	var (
		m       entity.StockMovement
		mt      string
		refType string
	)
	err := row.Scan(&m.ID, &m.Seq, &m.ProductID, &m.WarehouseID, &m.BinID, &m.BatchID, &m.Quantity, &mt,
		&refType, &m.Reference.DocumentID, &m.UnitCost, &m.Notes, &m.Override, &m.CreatedBy, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(mt)
	m.Reference.DocumentType = entity.DocumentType(refType)
	return &m, nil
}
