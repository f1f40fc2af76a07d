package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// TransferUseCase traslado entre bodegas: por línea un TRANSFER_OUT en origen y un
// TRANSFER_IN en destino, en la misma transacción.
type TransferUseCase struct {
	core *Core
	lc   *lifecycle[entity.Transfer, *entity.Transfer]
}

// NewTransferUseCase construye el caso de uso.
func NewTransferUseCase(core *Core) *TransferUseCase {
	uc := &TransferUseCase{core: core}
	uc.lc = &lifecycle[entity.Transfer, *entity.Transfer]{
		core: core,
		doc:  entity.DocumentTypeTransfer,
		repo: func(tx TxRepos) documentRepo[*entity.Transfer] { return tx.Transfers },
		locks: func(t *entity.Transfer) []string {
			names := make([]string, 0, 2*len(t.Lines))
			for _, l := range t.Lines {
				names = append(names,
					productWarehouseLock(l.ProductID, t.FromWarehouseID),
					productWarehouseLock(l.ProductID, t.ToWarehouseID))
			}
			return names
		},
		check: uc.check,
		post:  uc.post,
	}
	return uc
}

// SaveDraft guarda el traslado en borrador.
func (uc *TransferUseCase) SaveDraft(ctx context.Context, actor Actor, in dto.TransferRequest) (*entity.Transfer, error) {
	if err := uc.validate(actor, in); err != nil {
		return nil, err
	}
	return uc.lc.saveDraft(ctx, actor, uc.builder(actor, in))
}

// Confirm guarda y confirma el traslado. Idempotente por Number.
func (uc *TransferUseCase) Confirm(ctx context.Context, actor Actor, in dto.TransferRequest) (*entity.Transfer, error) {
	if err := uc.validate(actor, in); err != nil {
		return nil, err
	}
	return uc.lc.saveAndConfirm(ctx, actor, uc.builder(actor, in))
}

// ConfirmDraft confirma un traslado en borrador.
func (uc *TransferUseCase) ConfirmDraft(ctx context.Context, actor Actor, id string) (*entity.Transfer, error) {
	return uc.lc.confirm(ctx, actor, id)
}

// Cancel anula el traslado: devuelve el stock a la bodega origen.
func (uc *TransferUseCase) Cancel(ctx context.Context, actor Actor, id, reason string) (*entity.Transfer, error) {
	return uc.lc.cancel(ctx, actor, id, reason)
}

// Get obtiene el traslado.
func (uc *TransferUseCase) Get(ctx context.Context, actor Actor, id string) (*entity.Transfer, error) {
	return uc.lc.get(ctx, actor, id)
}

func (uc *TransferUseCase) validate(actor Actor, in dto.TransferRequest) error {
	if err := checkActor(actor); err != nil {
		return err
	}
	if in.FromWarehouseID == "" {
		return domain.Invalid("from_warehouse_id", "requerido")
	}
	if in.ToWarehouseID == "" {
		return domain.Invalid("to_warehouse_id", "requerido")
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return fmt.Errorf("%w: origen y destino son la misma bodega", domain.ErrInvalidMovement)
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
	}
	return nil
}

func (uc *TransferUseCase) builder(actor Actor, in dto.TransferRequest) func() *entity.Transfer {
	number := documentNumber(entity.DocumentTypeTransfer, in.Number)
	return func() *entity.Transfer {
		t := &entity.Transfer{
			DocumentHeader:  newHeader(actor, number, in.Notes, uc.core.now()),
			FromWarehouseID: in.FromWarehouseID,
			ToWarehouseID:   in.ToWarehouseID,
			Lines:           make([]entity.TransferLine, 0, len(in.Lines)),
		}
		for _, l := range in.Lines {
			t.Lines = append(t.Lines, entity.TransferLine{
				ID:        uuid.New().String(),
				ProductID: l.ProductID,
				BatchID:   l.BatchID,
				Quantity:  l.Quantity,
			})
		}
		return t
	}
}

func (uc *TransferUseCase) check(ctx context.Context, tx TxRepos, actor Actor, t *entity.Transfer) error {
	if err := checkWarehouse(ctx, tx, actor, "from_warehouse_id", t.FromWarehouseID); err != nil {
		return err
	}
	if err := checkWarehouse(ctx, tx, actor, "to_warehouse_id", t.ToWarehouseID); err != nil {
		return err
	}
	for i, l := range t.Lines {
		if err := checkProduct(ctx, tx, actor, i, l.ProductID); err != nil {
			return err
		}
		if err := checkBatch(ctx, tx, i, l.BatchID, l.ProductID); err != nil {
			return err
		}
	}
	return nil
}

func (uc *TransferUseCase) post(ctx context.Context, tx TxRepos, actor Actor, t *entity.Transfer, _ time.Time) ([]*entity.StockMovement, error) {
	ref := entity.Reference{DocumentType: entity.DocumentTypeTransfer, DocumentID: t.ID}
	ops := make([]MovementOp, 0, 2*len(t.Lines))
	for i, l := range t.Lines {
		ops = append(ops,
			MovementOp{
				Line:      i,
				Key:       entity.StockKey{ProductID: l.ProductID, WarehouseID: t.FromWarehouseID, BatchID: l.BatchID},
				Delta:     l.Quantity.Neg(),
				Type:      entity.MovementTypeTransferOut,
				Reference: ref,
				Notes:     t.Notes,
				CreatedBy: actor.UserID,
			},
			MovementOp{
				Line:      i,
				Key:       entity.StockKey{ProductID: l.ProductID, WarehouseID: t.ToWarehouseID, BatchID: l.BatchID},
				Delta:     l.Quantity,
				Type:      entity.MovementTypeTransferIn,
				Reference: ref,
				Notes:     t.Notes,
				CreatedBy: actor.UserID,
			})
	}
	movs, err := uc.core.recorder.Record(ctx, tx, ops)
	if err != nil {
		return nil, err
	}
	for i := range t.Lines {
		t.Lines[i].OutMovementID = movs[2*i].ID
		t.Lines[i].InMovementID = movs[2*i+1].ID
	}
	return movs, nil
}
