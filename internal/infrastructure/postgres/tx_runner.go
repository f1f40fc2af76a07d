package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL (READ COMMITTED).
// La consistencia de saldos la dan los SELECT ... FOR UPDATE sobre stock_balances.
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool. lockTimeout > 0 limita la espera por row locks;
// al vencer, Postgres responde 55P03 y la operación se reporta como ErrConflict.
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, lockTimeout: lockTimeout}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(tx inventory.TxRepos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return mapError("begin transaction", err)
	}
	// Rollback aunque el ctx del request ya esté cancelado.
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if r.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return mapError("set lock_timeout", err)
		}
	}

	if err := fn(Repos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError("commit transaction", err)
	}
	return nil
}

// Repos construye todos los repositorios sobre un Querier (pool para lecturas, tx para escrituras).
func Repos(q Querier) inventory.TxRepos {
	return inventory.TxRepos{
		Ledger:      NewLedgerRepository(q),
		Balances:    NewBalanceRepository(q),
		Batches:     NewBatchRepository(q),
		Receipts:    NewGoodsReceiptRepository(q),
		Sales:       NewSaleRepository(q),
		Transfers:   NewTransferRepository(q),
		Adjustments: NewAdjustmentRepository(q),
		Returns:     NewSaleReturnRepository(q),
		Products:    NewProductRepository(q),
		Warehouses:  NewWarehouseRepository(q),
	}
}
