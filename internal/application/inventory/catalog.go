package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	dominv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

// checkWarehouse valida que la bodega exista, esté activa y sea de la empresa del actor.
func checkWarehouse(ctx context.Context, repos TxRepos, actor Actor, field, id string) error {
	if id == "" {
		return domain.Invalid(field, "requerido")
	}
	w, err := repos.Warehouses.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if w == nil {
		return domain.Invalid(field, "bodega no existe")
	}
	if w.CompanyID != actor.CompanyID {
		return domain.ErrForbidden
	}
	if !w.Active {
		return domain.Invalid(field, "bodega inactiva")
	}
	return nil
}

// checkProduct valida que el producto exista y sea de la empresa del actor.
func checkProduct(ctx context.Context, repos TxRepos, actor Actor, line int, id string) error {
	if id == "" {
		return domain.InvalidLine(line, "product_id", "requerido")
	}
	p, err := repos.Products.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.InvalidLine(line, "product_id", "producto no existe")
	}
	if p.CompanyID != actor.CompanyID {
		return domain.ErrForbidden
	}
	return nil
}

func checkBin(ctx context.Context, repos TxRepos, line int, warehouseID, binID string) error {
	if binID == "" {
		return nil
	}
	b, err := repos.Warehouses.GetBin(ctx, warehouseID, binID)
	if err != nil {
		return err
	}
	if b == nil {
		return domain.InvalidLine(line, "bin_id", "ubicación no existe en la bodega")
	}
	return nil
}

// checkBatch valida que el lote exista y pertenezca al producto.
func checkBatch(ctx context.Context, repos TxRepos, line int, batchID, productID string) error {
	if batchID == "" {
		return nil
	}
	b, err := repos.Batches.GetByID(ctx, batchID)
	if err != nil {
		return err
	}
	if b == nil || b.ProductID != productID {
		return domain.InvalidLine(line, "batch_id", "lote no existe para el producto")
	}
	return nil
}

func checkQuantity(line int, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return domain.InvalidLine(line, "quantity", "debe ser mayor que cero")
	}
	return checkScale(line, "quantity", qty)
}

func checkUnitCost(line int, cost *decimal.Decimal) error {
	if cost == nil {
		return nil
	}
	if cost.IsNegative() {
		return domain.InvalidLine(line, "unit_cost", "no puede ser negativo")
	}
	return checkScale(line, "unit_cost", *cost)
}

// checkScale rechaza valores que la BD redondearía o no podría guardar.
func checkScale(line int, field string, v decimal.Decimal) error {
	if !dominv.Representable(v) {
		return domain.InvalidLine(line, field, fmt.Sprintf("máximo %d decimales y 14 dígitos enteros", dominv.Scale))
	}
	return nil
}

// checkOwner valida que el documento pertenezca a la empresa del actor.
func checkOwner(actor Actor, h *entity.DocumentHeader) error {
	if h.CompanyID != actor.CompanyID {
		return domain.ErrForbidden
	}
	return nil
}

// documentNumber llave de idempotencia; sin número del cliente se genera una única.
func documentNumber(doc entity.DocumentType, number string) string {
	if number != "" {
		return number
	}
	return fmt.Sprintf("%s-%s", doc, uuid.New().String())
}

func newHeader(actor Actor, number string, notes string, now time.Time) entity.DocumentHeader {
	return entity.DocumentHeader{
		ID:        uuid.New().String(),
		Number:    number,
		CompanyID: actor.CompanyID,
		Status:    entity.DocumentStatusDraft,
		Notes:     notes,
		CreatedBy: actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func checkActor(actor Actor) error {
	if actor.UserID == "" || actor.CompanyID == "" {
		return domain.ErrForbidden
	}
	return nil
}

func notFound(doc entity.DocumentType, id string) error {
	return fmt.Errorf("%w: %s %s", domain.ErrNotFound, doc, id)
}
