package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// BalanceCalculator lectura del saldo cacheado y reconciliación contra el ledger.
type BalanceCalculator struct {
	core *Core
}

// ReconcileResult resultado de recalcular una llave.
type ReconcileResult struct {
	Key        entity.StockKey
	Previous   decimal.Decimal
	Recomputed decimal.Decimal
	Drift      decimal.Decimal // Recomputed - Previous
}

// GetBalance saldo actual de la llave. Una llave sin fila de caché se materializa desde el ledger.
func (b *BalanceCalculator) GetBalance(ctx context.Context, key entity.StockKey) (decimal.Decimal, error) {
	if key.ProductID == "" || key.WarehouseID == "" {
		return decimal.Zero, domain.Invalid("key", "producto y bodega son requeridos")
	}
	repo := b.core.reader.Balances
	bal, err := repo.Get(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	if bal != nil {
		return bal.Quantity, nil
	}
	if err := repo.EnsureFromLedger(ctx, key); err != nil {
		return decimal.Zero, err
	}
	bal, err = repo.Get(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	if bal == nil {
		return decimal.Zero, nil
	}
	return bal.Quantity, nil
}

func (b *BalanceCalculator) applyDelta(ctx context.Context, tx TxRepos, key entity.StockKey, delta decimal.Decimal) error {
	return tx.Balances.ApplyDelta(ctx, key, delta)
}

// Reconcile recalcula el saldo de la llave desde el ledger bajo row lock y corrige el caché.
func (b *BalanceCalculator) Reconcile(ctx context.Context, key entity.StockKey) (*ReconcileResult, error) {
	if key.ProductID == "" || key.WarehouseID == "" {
		return nil, domain.Invalid("key", "producto y bodega son requeridos")
	}
	var res *ReconcileResult
	err := b.core.run(ctx, "reconcile", []string{productWarehouseLock(key.ProductID, key.WarehouseID)}, func(tx TxRepos) error {
		cur, err := tx.Balances.GetForUpdate(ctx, key)
		if err != nil {
			return err
		}
		sum, err := tx.Ledger.SumBalance(ctx, key)
		if err != nil {
			return err
		}
		if !sum.Equal(cur.Quantity) {
			if err := tx.Balances.Set(ctx, key, sum); err != nil {
				return err
			}
		}
		res = &ReconcileResult{Key: key, Previous: cur.Quantity, Recomputed: sum, Drift: sum.Sub(cur.Quantity)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !res.Drift.IsZero() {
		b.core.observer.ReconcileDrift(key, res.Drift)
		b.core.log.Warn().Str("key", key.String()).Str("previous", res.Previous.String()).
			Str("recomputed", res.Recomputed.String()).Msg("reconciliación: caché corregido")
	}
	return res, nil
}

// ReconcileAll reconcilia cada llave presente en el ledger. Se detiene en el primer error.
func (b *BalanceCalculator) ReconcileAll(ctx context.Context) ([]ReconcileResult, error) {
	keys, err := b.core.reader.Ledger.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ReconcileResult, 0, len(keys))
	for _, k := range keys {
		r, err := b.Reconcile(ctx, k)
		if err != nil {
			return out, fmt.Errorf("reconciliar %s: %w", k.String(), err)
		}
		out = append(out, *r)
	}
	return out, nil
}
