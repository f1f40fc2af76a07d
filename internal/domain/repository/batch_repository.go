package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// BatchRepository puerto de lotes.
type BatchRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Batch, error)
	// GetByLotForUpdate busca el lote por producto+bodega+número y lo bloquea; nil si no existe.
	GetByLotForUpdate(ctx context.Context, productID, warehouseID, lotNumber string) (*entity.Batch, error)
	Create(ctx context.Context, batch *entity.Batch) error
	// UpdateReceived actualiza cantidad acumulada y costo del lote.
	UpdateReceived(ctx context.Context, id string, quantity, unitCost decimal.Decimal) error
}
