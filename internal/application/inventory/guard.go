package inventory

import (
	"context"
	"errors"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	dominv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Guard serializa escrituras concurrentes sobre las mismas llaves.
// La garantía la dan los row locks de la BD; el KeyLocker solo reduce contención entre procesos.
type Guard struct {
	locker KeyLocker
	log    *logger.Logger
}

// Acquire toma los candados externos en orden. Un candado ocupado es ErrConflict y lo
// reintenta Core.run; si el locker no responde se continúa solo con row locks.
func (g *Guard) Acquire(ctx context.Context, names []string) (func(), error) {
	if len(names) == 0 {
		return func() {}, nil
	}
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	release, err := g.locker.Lock(ctx, sorted)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		g.log.Warn().Err(err).Strs("locks", sorted).Msg("candado distribuido no disponible, se continúa con row locks")
		return func() {}, nil
	}
	return release, nil
}

// LockRows bloquea las filas de saldo en el orden canónico y devuelve el saldo actual de cada llave.
// Una fila ausente se materializa desde el ledger antes del bloqueo.
func (g *Guard) LockRows(ctx context.Context, balances repository.BalanceRepository, keys []entity.StockKey) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(keys))
	for _, k := range dominv.LockOrder(keys) {
		b, err := balances.GetForUpdate(ctx, k)
		if err != nil {
			return nil, err
		}
		out[k.String()] = b.Quantity
	}
	return out, nil
}

// productWarehouseLock nombre del candado externo (granularidad producto+bodega).
func productWarehouseLock(productID, warehouseID string) string {
	return "stock:" + productID + "|" + warehouseID
}
