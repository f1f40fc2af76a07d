package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// BalanceRepository puerto del caché de saldos por producto+bodega(+lote).
// Usado dentro de transacciones para garantizar consistencia con el ledger.
type BalanceRepository interface {
	// Get devuelve el saldo cacheado o nil si la fila no existe.
	Get(ctx context.Context, key entity.StockKey) (*entity.StockBalance, error)
	// EnsureFromLedger crea la fila desde SUM(ledger) si no existe (no pisa una existente).
	EnsureFromLedger(ctx context.Context, key entity.StockKey) error
	// GetForUpdate materializa la fila si falta y la bloquea (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockBalance, error)
	// ApplyDelta suma delta a la fila ya bloqueada.
	ApplyDelta(ctx context.Context, key entity.StockKey, delta decimal.Decimal) error
	// Set sobrescribe el saldo (reconciliación).
	Set(ctx context.Context, key entity.StockKey, quantity decimal.Decimal) error
}
