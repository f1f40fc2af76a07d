package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción (o al pool, para lecturas).
type TxRepos struct {
	Ledger      repository.LedgerRepository
	Balances    repository.BalanceRepository
	Batches     repository.BatchRepository
	Receipts    repository.GoodsReceiptRepository
	Sales       repository.SaleRepository
	Transfers   repository.TransferRepository
	Adjustments repository.AdjustmentRepository
	Returns     repository.SaleReturnRepository
	Products    repository.ProductRepository
	Warehouses  repository.WarehouseRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn retorna nil, Rollback en cualquier otro caso (incluida la cancelación del ctx).
type TxRunner interface {
	Run(ctx context.Context, fn func(tx TxRepos) error) error
}

// KeyLocker candado entre procesos previo a la transacción (p.ej. Redis).
// Los nombres llegan ya ordenados; release libera en orden inverso.
type KeyLocker interface {
	Lock(ctx context.Context, names []string) (release func(), err error)
}

// Observer recibe eventos del ledger ya confirmados (métricas).
type Observer interface {
	MovementsRecorded(movements []*entity.StockMovement)
	DocumentProcessed(doc entity.DocumentType, action, result string)
	ConflictRetry(op string)
	ReconcileDrift(key entity.StockKey, drift decimal.Decimal)
}

// Actor usuario y empresa que ejecutan la operación (vienen del JWT).
type Actor struct {
	UserID    string
	CompanyID string
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, []string) (func(), error) { return func() {}, nil }

type noopObserver struct{}

func (noopObserver) MovementsRecorded([]*entity.StockMovement)            {}
func (noopObserver) DocumentProcessed(entity.DocumentType, string, string) {}
func (noopObserver) ConflictRetry(string)                                  {}
func (noopObserver) ReconcileDrift(entity.StockKey, decimal.Decimal)       {}
