package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ProductRepository lectura del catálogo de productos (DIP). El ledger solo necesita un id estable.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}
