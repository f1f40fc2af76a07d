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

// SaleUseCase venta / checkout POS: cada línea produce un ISSUE negativo.
// Ninguna línea puede dejar su llave en negativo.
type SaleUseCase struct {
	core *Core
	lc   *lifecycle[entity.Sale, *entity.Sale]
}

// NewSaleUseCase construye el caso de uso.
func NewSaleUseCase(core *Core) *SaleUseCase {
	uc := &SaleUseCase{core: core}
	uc.lc = &lifecycle[entity.Sale, *entity.Sale]{
		core: core,
		doc:  entity.DocumentTypeSale,
		repo: func(tx TxRepos) documentRepo[*entity.Sale] { return tx.Sales },
		locks: func(s *entity.Sale) []string {
			names := make([]string, 0, len(s.Lines))
			for _, l := range s.Lines {
				names = append(names, productWarehouseLock(l.ProductID, s.WarehouseID))
			}
			return names
		},
		check:        uc.check,
		post:         uc.post,
		beforeCancel: uc.checkNoReturns,
	}
	return uc
}

// SaveDraft guarda la venta en borrador.
func (uc *SaleUseCase) SaveDraft(ctx context.Context, actor Actor, in dto.SaleRequest) (*entity.Sale, error) {
	if err := uc.validate(actor, in); err != nil {
		return nil, err
	}
	return uc.lc.saveDraft(ctx, actor, uc.builder(actor, in))
}

// Confirm guarda y confirma la venta. Idempotente por Number.
func (uc *SaleUseCase) Confirm(ctx context.Context, actor Actor, in dto.SaleRequest) (*entity.Sale, error) {
	if err := uc.validate(actor, in); err != nil {
		return nil, err
	}
	return uc.lc.saveAndConfirm(ctx, actor, uc.builder(actor, in))
}

// ConfirmDraft confirma una venta en borrador.
func (uc *SaleUseCase) ConfirmDraft(ctx context.Context, actor Actor, id string) (*entity.Sale, error) {
	return uc.lc.confirm(ctx, actor, id)
}

// Cancel anula la venta y reingresa el stock (ISSUE_REVERSAL).
func (uc *SaleUseCase) Cancel(ctx context.Context, actor Actor, id, reason string) (*entity.Sale, error) {
	return uc.lc.cancel(ctx, actor, id, reason)
}

// Get obtiene la venta.
func (uc *SaleUseCase) Get(ctx context.Context, actor Actor, id string) (*entity.Sale, error) {
	return uc.lc.get(ctx, actor, id)
}

func (uc *SaleUseCase) validate(actor Actor, in dto.SaleRequest) error {
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
	}
	return nil
}

func (uc *SaleUseCase) builder(actor Actor, in dto.SaleRequest) func() *entity.Sale {
	number := documentNumber(entity.DocumentTypeSale, in.Number)
	return func() *entity.Sale {
		s := &entity.Sale{
			DocumentHeader: newHeader(actor, number, in.Notes, uc.core.now()),
			WarehouseID:    in.WarehouseID,
			CustomerRef:    in.CustomerRef,
			Lines:          make([]entity.SaleLine, 0, len(in.Lines)),
		}
		for _, l := range in.Lines {
			s.Lines = append(s.Lines, entity.SaleLine{
				ID:        uuid.New().String(),
				ProductID: l.ProductID,
				BatchID:   l.BatchID,
				BinID:     l.BinID,
				Quantity:  l.Quantity,
			})
		}
		return s
	}
}

func (uc *SaleUseCase) check(ctx context.Context, tx TxRepos, actor Actor, s *entity.Sale) error {
	if err := checkWarehouse(ctx, tx, actor, "warehouse_id", s.WarehouseID); err != nil {
		return err
	}
	for i, l := range s.Lines {
		if err := checkProduct(ctx, tx, actor, i, l.ProductID); err != nil {
			return err
		}
		if err := checkBin(ctx, tx, i, s.WarehouseID, l.BinID); err != nil {
			return err
		}
		if err := checkBatch(ctx, tx, i, l.BatchID, l.ProductID); err != nil {
			return err
		}
	}
	return nil
}

func (uc *SaleUseCase) post(ctx context.Context, tx TxRepos, actor Actor, s *entity.Sale, _ time.Time) ([]*entity.StockMovement, error) {
	ref := entity.Reference{DocumentType: entity.DocumentTypeSale, DocumentID: s.ID}
	ops := make([]MovementOp, 0, len(s.Lines))
	for i, l := range s.Lines {
		ops = append(ops, MovementOp{
			Line:      i,
			Key:       entity.StockKey{ProductID: l.ProductID, WarehouseID: s.WarehouseID, BatchID: l.BatchID},
			BinID:     l.BinID,
			Delta:     l.Quantity.Neg(),
			Type:      entity.MovementTypeIssue,
			Reference: ref,
			Notes:     s.Notes,
			CreatedBy: actor.UserID,
		})
	}
	movs, err := uc.core.recorder.Record(ctx, tx, ops)
	if err != nil {
		return nil, err
	}
	for i := range s.Lines {
		s.Lines[i].MovementID = movs[i].ID
	}
	return movs, nil
}

// checkNoReturns una venta con devoluciones confirmadas no se anula (reingresaría dos veces).
func (uc *SaleUseCase) checkNoReturns(ctx context.Context, tx TxRepos, s *entity.Sale) error {
	rets, err := tx.Returns.ListConfirmedBySale(ctx, s.ID)
	if err != nil {
		return err
	}
	if len(rets) > 0 {
		return fmt.Errorf("%w: la venta %s tiene %d devoluciones confirmadas", domain.ErrInvalidState, s.Number, len(rets))
	}
	return nil
}
