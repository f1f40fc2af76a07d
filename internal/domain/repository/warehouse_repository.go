package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// WarehouseRepository lectura del catálogo de bodegas y ubicaciones (DIP).
type WarehouseRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
	GetBin(ctx context.Context, warehouseID, binID string) (*entity.Bin, error)
}
