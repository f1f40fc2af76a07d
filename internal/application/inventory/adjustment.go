package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// AdjustmentUseCase ajuste administrativo de una llave (conteo físico, merma, daño).
// Con Override el ajuste puede dejar la llave en negativo; el movimiento queda marcado.
type AdjustmentUseCase struct {
	core *Core
	lc   *lifecycle[entity.Adjustment, *entity.Adjustment]
}

// NewAdjustmentUseCase construye el caso de uso.
func NewAdjustmentUseCase(core *Core) *AdjustmentUseCase {
	uc := &AdjustmentUseCase{core: core}
	uc.lc = &lifecycle[entity.Adjustment, *entity.Adjustment]{
		core: core,
		doc:  entity.DocumentTypeAdjustment,
		repo: func(tx TxRepos) documentRepo[*entity.Adjustment] { return tx.Adjustments },
		locks: func(a *entity.Adjustment) []string {
			return []string{productWarehouseLock(a.ProductID, a.WarehouseID)}
		},
		check: uc.check,
		post:  uc.post,
	}
	return uc
}

// Apply guarda y confirma el ajuste. Idempotente por Number.
func (uc *AdjustmentUseCase) Apply(ctx context.Context, actor Actor, in dto.AdjustmentRequest) (*entity.Adjustment, error) {
	if err := uc.validate(actor, in); err != nil {
		return nil, err
	}
	return uc.lc.saveAndConfirm(ctx, actor, uc.builder(actor, in))
}

// Cancel anula el ajuste con un ADJUSTMENT_REVERSAL (hereda el override).
func (uc *AdjustmentUseCase) Cancel(ctx context.Context, actor Actor, id, reason string) (*entity.Adjustment, error) {
	return uc.lc.cancel(ctx, actor, id, reason)
}

// Get obtiene el ajuste.
func (uc *AdjustmentUseCase) Get(ctx context.Context, actor Actor, id string) (*entity.Adjustment, error) {
	return uc.lc.get(ctx, actor, id)
}

func (uc *AdjustmentUseCase) validate(actor Actor, in dto.AdjustmentRequest) error {
	if err := checkActor(actor); err != nil {
		return err
	}
	switch {
	case in.ProductID == "":
		return domain.Invalid("product_id", "requerido")
	case in.WarehouseID == "":
		return domain.Invalid("warehouse_id", "requerido")
	case in.Quantity.IsZero():
		return domain.Invalid("quantity", "no puede ser cero")
	case in.ReasonCode == "":
		return domain.Invalid("reason_code", "requerido")
	}
	if err := checkScale(-1, "quantity", in.Quantity); err != nil {
		return err
	}
	return checkUnitCost(-1, in.UnitCost)
}

func (uc *AdjustmentUseCase) builder(actor Actor, in dto.AdjustmentRequest) func() *entity.Adjustment {
	number := documentNumber(entity.DocumentTypeAdjustment, in.Number)
	return func() *entity.Adjustment {
		return &entity.Adjustment{
			DocumentHeader: newHeader(actor, number, in.Notes, uc.core.now()),
			ProductID:      in.ProductID,
			WarehouseID:    in.WarehouseID,
			BatchID:        in.BatchID,
			BinID:          in.BinID,
			Quantity:       in.Quantity,
			UnitCost:       in.UnitCost,
			ReasonCode:     in.ReasonCode,
			Override:       in.Override,
		}
	}
}

func (uc *AdjustmentUseCase) check(ctx context.Context, tx TxRepos, actor Actor, a *entity.Adjustment) error {
	if err := checkWarehouse(ctx, tx, actor, "warehouse_id", a.WarehouseID); err != nil {
		return err
	}
	if err := checkProduct(ctx, tx, actor, -1, a.ProductID); err != nil {
		return err
	}
	if err := checkBin(ctx, tx, -1, a.WarehouseID, a.BinID); err != nil {
		return err
	}
	return checkBatch(ctx, tx, -1, a.BatchID, a.ProductID)
}

func (uc *AdjustmentUseCase) post(ctx context.Context, tx TxRepos, actor Actor, a *entity.Adjustment, _ time.Time) ([]*entity.StockMovement, error) {
	notes := a.ReasonCode
	if a.Notes != "" {
		notes += ": " + a.Notes
	}
	movs, err := uc.core.recorder.Record(ctx, tx, []MovementOp{{
		Key:       entity.StockKey{ProductID: a.ProductID, WarehouseID: a.WarehouseID, BatchID: a.BatchID},
		BinID:     a.BinID,
		Delta:     a.Quantity,
		Type:      entity.MovementTypeAdjustment,
		Reference: entity.Reference{DocumentType: entity.DocumentTypeAdjustment, DocumentID: a.ID},
		UnitCost:  a.UnitCost,
		Notes:     notes,
		Override:  a.Override,
		CreatedBy: actor.UserID,
	}})
	if err != nil {
		return nil, err
	}
	a.MovementID = movs[0].ID
	return movs, nil
}
