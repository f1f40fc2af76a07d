package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	dominv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

// ReceiptUseCase recepción de mercancía (GRN): cada línea produce un RECEIPT positivo
// y, si trae número de lote, crea o incrementa el lote.
type ReceiptUseCase struct {
	core *Core
	lc   *lifecycle[entity.GoodsReceipt, *entity.GoodsReceipt]
}

// NewReceiptUseCase construye el caso de uso.
func NewReceiptUseCase(core *Core) *ReceiptUseCase {
	uc := &ReceiptUseCase{core: core}
	uc.lc = &lifecycle[entity.GoodsReceipt, *entity.GoodsReceipt]{
		core: core,
		doc:  entity.DocumentTypeGRN,
		repo: func(tx TxRepos) documentRepo[*entity.GoodsReceipt] { return tx.Receipts },
		locks: func(grn *entity.GoodsReceipt) []string {
			names := make([]string, 0, len(grn.Lines))
			for _, l := range grn.Lines {
				names = append(names, productWarehouseLock(l.ProductID, grn.WarehouseID))
			}
			return names
		},
		check:       uc.check,
		post:        uc.post,
		afterCancel: uc.releaseBatches,
	}
	return uc
}

// SaveDraft guarda (o reemplaza) la GRN en borrador, sin efecto en el ledger.
func (uc *ReceiptUseCase) SaveDraft(ctx context.Context, actor Actor, in dto.ReceiptRequest) (*entity.GoodsReceipt, error) {
	if err := uc.validate(actor, in); err != nil {
		return nil, err
	}
	return uc.lc.saveDraft(ctx, actor, uc.builder(actor, in))
}

// Confirm guarda y confirma la GRN. Idempotente por Number.
func (uc *ReceiptUseCase) Confirm(ctx context.Context, actor Actor, in dto.ReceiptRequest) (*entity.GoodsReceipt, error) {
	if err := uc.validate(actor, in); err != nil {
		return nil, err
	}
	return uc.lc.saveAndConfirm(ctx, actor, uc.builder(actor, in))
}

// ConfirmDraft confirma una GRN guardada como borrador.
func (uc *ReceiptUseCase) ConfirmDraft(ctx context.Context, actor Actor, id string) (*entity.GoodsReceipt, error) {
	return uc.lc.confirm(ctx, actor, id)
}

// Cancel anula la GRN: reversa los RECEIPT y descuenta lo recibido de cada lote.
// Si el stock ya fue consumido el reverso falla por stock insuficiente.
func (uc *ReceiptUseCase) Cancel(ctx context.Context, actor Actor, id, reason string) (*entity.GoodsReceipt, error) {
	return uc.lc.cancel(ctx, actor, id, reason)
}

// Get obtiene la GRN.
func (uc *ReceiptUseCase) Get(ctx context.Context, actor Actor, id string) (*entity.GoodsReceipt, error) {
	return uc.lc.get(ctx, actor, id)
}

func (uc *ReceiptUseCase) validate(actor Actor, in dto.ReceiptRequest) error {
	if err := checkActor(actor); err != nil {
		return err
	}
	if in.WarehouseID == "" {
		return domain.Invalid("warehouse_id", "requerido")
	}
	if len(in.Lines) == 0 {
		return domain.Invalid("lines", "al menos una línea")
	}
	for i, l := range in.Lines {
		if l.ProductID == "" {
			return domain.InvalidLine(i, "product_id", "requerido")
		}
		if err := checkQuantity(i, l.Quantity); err != nil {
			return err
		}
		if err := checkUnitCost(i, l.UnitCost); err != nil {
			return err
		}
		if l.ManufactureDate != nil && l.ExpiryDate != nil && l.ExpiryDate.Before(*l.ManufactureDate) {
			return domain.InvalidLine(i, "expiry_date", "anterior a la fecha de fabricación")
		}
	}
	return nil
}

func (uc *ReceiptUseCase) builder(actor Actor, in dto.ReceiptRequest) func() *entity.GoodsReceipt {
	number := documentNumber(entity.DocumentTypeGRN, in.Number)
	return func() *entity.GoodsReceipt {
		grn := &entity.GoodsReceipt{
			DocumentHeader: newHeader(actor, number, in.Notes, uc.core.now()),
			WarehouseID:    in.WarehouseID,
			SupplierRef:    in.SupplierRef,
			Lines:          make([]entity.GoodsReceiptLine, 0, len(in.Lines)),
		}
		for _, l := range in.Lines {
			grn.Lines = append(grn.Lines, entity.GoodsReceiptLine{
				ID:              uuid.New().String(),
				ProductID:       l.ProductID,
				BinID:           l.BinID,
				Quantity:        l.Quantity,
				UnitCost:        l.UnitCost,
				BatchNumber:     l.BatchNumber,
				ManufactureDate: l.ManufactureDate,
				ExpiryDate:      l.ExpiryDate,
			})
		}
		return grn
	}
}

func (uc *ReceiptUseCase) check(ctx context.Context, tx TxRepos, actor Actor, grn *entity.GoodsReceipt) error {
	if err := checkWarehouse(ctx, tx, actor, "warehouse_id", grn.WarehouseID); err != nil {
		return err
	}
	for i, l := range grn.Lines {
		if err := checkProduct(ctx, tx, actor, i, l.ProductID); err != nil {
			return err
		}
		if err := checkBin(ctx, tx, i, grn.WarehouseID, l.BinID); err != nil {
			return err
		}
	}
	return nil
}

func (uc *ReceiptUseCase) post(ctx context.Context, tx TxRepos, actor Actor, grn *entity.GoodsReceipt, now time.Time) ([]*entity.StockMovement, error) {
	ref := entity.Reference{DocumentType: entity.DocumentTypeGRN, DocumentID: grn.ID}
	ops := make([]MovementOp, 0, len(grn.Lines))
	for i := range grn.Lines {
		l := &grn.Lines[i]
		if l.BatchNumber != "" {
			b, err := receiveBatch(ctx, tx, grn.WarehouseID, l, now)
			if err != nil {
				return nil, err
			}
			l.BatchID = b.ID
		}
		ops = append(ops, MovementOp{
			Line:      i,
			Key:       entity.StockKey{ProductID: l.ProductID, WarehouseID: grn.WarehouseID, BatchID: l.BatchID},
			BinID:     l.BinID,
			Delta:     l.Quantity,
			Type:      entity.MovementTypeReceipt,
			Reference: ref,
			UnitCost:  l.UnitCost,
			Notes:     grn.Notes,
			CreatedBy: actor.UserID,
		})
	}
	movs, err := uc.core.recorder.Record(ctx, tx, ops)
	if err != nil {
		return nil, err
	}
	for i := range grn.Lines {
		grn.Lines[i].MovementID = movs[i].ID
	}
	return movs, nil
}

// receiveBatch crea el lote o, si el número ya existe para producto+bodega, suma la cantidad
// y recalcula el costo promedio ponderado.
func receiveBatch(ctx context.Context, tx TxRepos, warehouseID string, l *entity.GoodsReceiptLine, now time.Time) (*entity.Batch, error) {
	b, err := tx.Batches.GetByLotForUpdate(ctx, l.ProductID, warehouseID, l.BatchNumber)
	if err != nil {
		return nil, err
	}
	if b == nil {
		b = &entity.Batch{
			ID:              uuid.New().String(),
			ProductID:       l.ProductID,
			WarehouseID:     warehouseID,
			LotNumber:       l.BatchNumber,
			ManufactureDate: l.ManufactureDate,
			ExpiryDate:      l.ExpiryDate,
			Quantity:        l.Quantity,
			UnitCost:        decimal.Zero,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if l.UnitCost != nil {
			b.UnitCost = *l.UnitCost
		}
		return b, tx.Batches.Create(ctx, b)
	}
	cost := b.UnitCost
	if l.UnitCost != nil {
		cost = dominv.WeightedAverageCost(b.Quantity, b.UnitCost, l.Quantity, *l.UnitCost)
	}
	b.Quantity = b.Quantity.Add(l.Quantity)
	b.UnitCost = cost
	return b, tx.Batches.UpdateReceived(ctx, b.ID, b.Quantity, b.UnitCost)
}

func (uc *ReceiptUseCase) releaseBatches(ctx context.Context, tx TxRepos, grn *entity.GoodsReceipt) error {
	for _, l := range grn.Lines {
		if l.BatchNumber == "" {
			continue
		}
		b, err := tx.Batches.GetByLotForUpdate(ctx, l.ProductID, grn.WarehouseID, l.BatchNumber)
		if err != nil {
			return err
		}
		if b == nil {
			continue
		}
		qty := b.Quantity.Sub(l.Quantity)
		if qty.IsNegative() {
			qty = decimal.Zero
		}
		if err := tx.Batches.UpdateReceived(ctx, b.ID, qty, b.UnitCost); err != nil {
			return err
		}
	}
	return nil
}
