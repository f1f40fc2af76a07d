package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Los repositorios de documentos comparten forma:
//   - Save inserta o actualiza cabecera y reemplaza las líneas.
//   - GetForUpdate / GetByNumberForUpdate bloquean la cabecera (nil si no existe).
//   - Un Number repetido en Save devuelve ErrConflict (índice único).

// GoodsReceiptRepository persistencia de GRN.
type GoodsReceiptRepository interface {
	Save(ctx context.Context, grn *entity.GoodsReceipt) error
	GetByID(ctx context.Context, id string) (*entity.GoodsReceipt, error)
	GetForUpdate(ctx context.Context, id string) (*entity.GoodsReceipt, error)
	GetByNumberForUpdate(ctx context.Context, number string) (*entity.GoodsReceipt, error)
}

// SaleRepository persistencia de ventas.
type SaleRepository interface {
	Save(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	GetByNumberForUpdate(ctx context.Context, number string) (*entity.Sale, error)
}

// TransferRepository persistencia de traslados.
type TransferRepository interface {
	Save(ctx context.Context, transfer *entity.Transfer) error
	GetByID(ctx context.Context, id string) (*entity.Transfer, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error)
	GetByNumberForUpdate(ctx context.Context, number string) (*entity.Transfer, error)
}

// AdjustmentRepository persistencia de ajustes.
type AdjustmentRepository interface {
	Save(ctx context.Context, adj *entity.Adjustment) error
	GetByID(ctx context.Context, id string) (*entity.Adjustment, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Adjustment, error)
	GetByNumberForUpdate(ctx context.Context, number string) (*entity.Adjustment, error)
}

// SaleReturnRepository persistencia de devoluciones.
type SaleReturnRepository interface {
	Save(ctx context.Context, ret *entity.SaleReturn) error
	GetByID(ctx context.Context, id string) (*entity.SaleReturn, error)
	GetForUpdate(ctx context.Context, id string) (*entity.SaleReturn, error)
	GetByNumberForUpdate(ctx context.Context, number string) (*entity.SaleReturn, error)
	// ListConfirmedBySale devoluciones confirmadas de una venta (para no devolver de más).
	ListConfirmedBySale(ctx context.Context, saleID string) ([]*entity.SaleReturn, error)
}
