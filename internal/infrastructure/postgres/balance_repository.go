package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.BalanceRepository = (*BalanceRepo)(nil)

// BalanceRepo caché de saldos sobre stock_balances (usable con pool o tx).
type BalanceRepo struct {
	q Querier
}

// NewBalanceRepository construye el adaptador de saldos. Pasar pool o tx (Querier).
func NewBalanceRepository(q Querier) *BalanceRepo {
	return &BalanceRepo{q: q}
}

// Get obtiene el saldo cacheado; nil si la fila no existe.
func (r *BalanceRepo) Get(ctx context.Context, key entity.StockKey) (*entity.StockBalance, error) {
	return r.get(ctx, `
		SELECT quantity, updated_at FROM stock_balances
		WHERE product_id = $1 AND warehouse_id = $2 AND batch_id = $3`, key)
}

// EnsureFromLedger crea la fila con SUM(ledger) si no existe. Con dos transacciones concurrentes
// gana una y la otra no hace nada (ON CONFLICT DO NOTHING).
func (r *BalanceRepo) EnsureFromLedger(ctx context.Context, key entity.StockKey) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_balances (product_id, warehouse_id, batch_id, quantity, updated_at)
		SELECT $1, $2, $3, COALESCE(SUM(quantity), 0), now()
		FROM stock_movements
		WHERE product_id = $1 AND warehouse_id = $2 AND batch_id = $3
		ON CONFLICT (product_id, warehouse_id, batch_id) DO NOTHING`,
		key.ProductID, key.WarehouseID, key.BatchID)
	if err != nil {
		return mapError("ensure stock balance", err)
	}
	return nil
}

// GetForUpdate materializa la fila si falta y la bloquea (SELECT FOR UPDATE).
// Así una llave sin saldo previo también queda bloqueada.
func (r *BalanceRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockBalance, error) {
	if err := r.EnsureFromLedger(ctx, key); err != nil {
		return nil, err
	}
	b, err := r.get(ctx, `
		SELECT quantity, updated_at FROM stock_balances
		WHERE product_id = $1 AND warehouse_id = $2 AND batch_id = $3
		FOR UPDATE`, key)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: saldo %s no materializado", domain.ErrStorage, key.String())
	}
	return b, nil
}

// ApplyDelta suma delta a la fila (ya bloqueada por GetForUpdate).
func (r *BalanceRepo) ApplyDelta(ctx context.Context, key entity.StockKey, delta decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE stock_balances SET quantity = quantity + $4, updated_at = now()
		WHERE product_id = $1 AND warehouse_id = $2 AND batch_id = $3`,
		key.ProductID, key.WarehouseID, key.BatchID, delta)
	if err != nil {
		return mapError("apply stock delta", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: saldo %s sin bloquear", domain.ErrStorage, key.String())
	}
	return nil
}

// Set sobrescribe el saldo (reconciliación).
func (r *BalanceRepo) Set(ctx context.Context, key entity.StockKey, quantity decimal.Decimal) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_balances (product_id, warehouse_id, batch_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (product_id, warehouse_id, batch_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`,
		key.ProductID, key.WarehouseID, key.BatchID, quantity)
	if err != nil {
		return mapError("set stock balance", err)
	}
	return nil
}

func (r *BalanceRepo) get(ctx context.Context, query string, key entity.StockKey) (*entity.StockBalance, error) {
	b := entity.StockBalance{Key: key}
	err := r.q.QueryRow(ctx, query, key.ProductID, key.WarehouseID, key.BatchID).Scan(&b.Quantity, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get stock balance", err)
	}
	return &b, nil
}
