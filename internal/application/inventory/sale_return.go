package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ReturnUseCase devolución de cliente contra una venta confirmada: RETURN positivo en la
// bodega y lote de la línea vendida. No se devuelve más de lo vendido.
type ReturnUseCase struct {
	core *Core
	lc   *lifecycle[entity.SaleReturn, *entity.SaleReturn]
}

// NewReturnUseCase construye el caso de uso.
func NewReturnUseCase(core *Core) *ReturnUseCase {
	uc := &ReturnUseCase{core: core}
	uc.lc = &lifecycle[entity.SaleReturn, *entity.SaleReturn]{
		core: core,
		doc:  entity.DocumentTypeReturn,
		repo: func(tx TxRepos) documentRepo[*entity.SaleReturn] { return tx.Returns },
		locks: func(r *entity.SaleReturn) []string {
			names := make([]string, 0, len(r.Lines))
			for _, l := range r.Lines {
				names = append(names, productWarehouseLock(l.ProductID, r.WarehouseID))
			}
			return names
		},
		check: uc.check,
		post:  uc.post,
	}
	return uc
}

// Confirm registra y confirma la devolución. Idempotente por Number.
func (uc *ReturnUseCase) Confirm(ctx context.Context, actor Actor, in dto.ReturnRequest) (*entity.SaleReturn, error) {
	if err := uc.validate(actor, in); err != nil {
		return nil, err
	}
	return uc.lc.saveAndConfirm(ctx, actor, uc.builder(actor, in))
}

// Cancel anula la devolución (RETURN_REVERSAL); falla si el stock devuelto ya se consumió.
func (uc *ReturnUseCase) Cancel(ctx context.Context, actor Actor, id, reason string) (*entity.SaleReturn, error) {
	return uc.lc.cancel(ctx, actor, id, reason)
}

// Get obtiene la devolución.
func (uc *ReturnUseCase) Get(ctx context.Context, actor Actor, id string) (*entity.SaleReturn, error) {
	return uc.lc.get(ctx, actor, id)
}

func (uc *ReturnUseCase) validate(actor Actor, in dto.ReturnRequest) error {
	if err := checkActor(actor); err != nil {
		return err
	}
	if in.SaleID == "" {
		return domain.Invalid("sale_id", "requerido")
	}
	if len(in.Lines) == 0 {
		return domain.Invalid("lines", "al menos una línea")
	}
	for i, l := range in.Lines {
		if l.SaleLineID == "" {
			return domain.InvalidLine(i, "sale_line_id", "requerido")
		}
		if err := checkQuantity(i, l.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (uc *ReturnUseCase) builder(actor Actor, in dto.ReturnRequest) func() *entity.SaleReturn {
	number := documentNumber(entity.DocumentTypeReturn, in.Number)
	return func() *entity.SaleReturn {
		r := &entity.SaleReturn{
			DocumentHeader: newHeader(actor, number, in.Notes, uc.core.now()),
			SaleID:         in.SaleID,
			Reason:         in.Reason,
			Lines:          make([]entity.SaleReturnLine, 0, len(in.Lines)),
		}
		for _, l := range in.Lines {
			r.Lines = append(r.Lines, entity.SaleReturnLine{
				ID:         uuid.New().String(),
				SaleLineID: l.SaleLineID,
				Quantity:   l.Quantity,
			})
		}
		return r
	}
}

// check bloquea la venta, resuelve producto/lote/bodega de cada línea y valida que
// lo devuelto (confirmado + esta devolución) no supere lo vendido.
func (uc *ReturnUseCase) check(ctx context.Context, tx TxRepos, actor Actor, r *entity.SaleReturn) error {
	sale, err := tx.Sales.GetForUpdate(ctx, r.SaleID)
	if err != nil {
		return err
	}
	if sale == nil {
		return domain.Invalid("sale_id", "venta no existe")
	}
	if err := checkOwner(actor, &sale.DocumentHeader); err != nil {
		return err
	}
	if sale.Status != entity.DocumentStatusConfirmed {
		return fmt.Errorf("%w: la venta %s está %s", domain.ErrInvalidState, sale.Number, sale.Status)
	}
	r.WarehouseID = sale.WarehouseID

	sold := make(map[string]entity.SaleLine, len(sale.Lines))
	for _, l := range sale.Lines {
		sold[l.ID] = l
	}
	returned := make(map[string]decimal.Decimal)
	prev, err := tx.Returns.ListConfirmedBySale(ctx, sale.ID)
	if err != nil {
		return err
	}
	for _, p := range prev {
		if p.ID == r.ID {
			continue
		}
		for _, l := range p.Lines {
			returned[l.SaleLineID] = returned[l.SaleLineID].Add(l.Quantity)
		}
	}

	for i := range r.Lines {
		l := &r.Lines[i]
		sl, ok := sold[l.SaleLineID]
		if !ok {
			return domain.InvalidLine(i, "sale_line_id", "la línea no pertenece a la venta")
		}
		l.ProductID, l.BatchID = sl.ProductID, sl.BatchID
		returned[l.SaleLineID] = returned[l.SaleLineID].Add(l.Quantity)
		if returned[l.SaleLineID].GreaterThan(sl.Quantity) {
			return domain.InvalidLine(i, "quantity", fmt.Sprintf("excede lo vendido (%s)", sl.Quantity))
		}
	}
	return nil
}

func (uc *ReturnUseCase) post(ctx context.Context, tx TxRepos, actor Actor, r *entity.SaleReturn, _ time.Time) ([]*entity.StockMovement, error) {
	ref := entity.Reference{DocumentType: entity.DocumentTypeReturn, DocumentID: r.ID}
	notes := r.Reason
	if notes == "" {
		notes = r.Notes
	}
	ops := make([]MovementOp, 0, len(r.Lines))
	for i, l := range r.Lines {
		ops = append(ops, MovementOp{
			Line:      i,
			Key:       entity.StockKey{ProductID: l.ProductID, WarehouseID: r.WarehouseID, BatchID: l.BatchID},
			Delta:     l.Quantity,
			Type:      entity.MovementTypeReturn,
			Reference: ref,
			Notes:     notes,
			CreatedBy: actor.UserID,
		})
	}
	movs, err := uc.core.recorder.Record(ctx, tx, ops)
	if err != nil {
		return nil, err
	}
	for i := range r.Lines {
		r.Lines[i].MovementID = movs[i].ID
	}
	return movs, nil
}
