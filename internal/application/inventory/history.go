package inventory

import (
	"context"
	"iter"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// HistoryQuery filtro de historial: por llave o por documento (uno de los dos).
// Cursor es el Seq del último movimiento ya visto (0 = desde el inicio).
type HistoryQuery struct {
	Key       *entity.StockKey
	Reference *entity.Reference
	Cursor    int64
	PageSize  int
}

// HistoryPage página de movimientos en orden de inserción. NextCursor 0 = no hay más.
type HistoryPage struct {
	Items      []*entity.StockMovement
	NextCursor int64
}

// HistoryUseCase consultas de solo lectura sobre el ledger.
type HistoryUseCase struct {
	core *Core
}

// NewHistoryUseCase construye el caso de uso de historial.
func NewHistoryUseCase(core *Core) *HistoryUseCase {
	return &HistoryUseCase{core: core}
}

// History devuelve una página de movimientos.
func (uc *HistoryUseCase) History(ctx context.Context, q HistoryQuery) (*HistoryPage, error) {
	size := q.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	var (
		items []*entity.StockMovement
		err   error
	)
	ledger := uc.core.reader.Ledger
	switch {
	case q.Key != nil && q.Reference == nil:
		if q.Key.ProductID == "" || q.Key.WarehouseID == "" {
			return nil, domain.Invalid("key", "producto y bodega son requeridos")
		}
		items, err = ledger.ListByKey(ctx, *q.Key, q.Cursor, size+1)
	case q.Reference != nil && q.Key == nil:
		if !q.Reference.DocumentType.Valid() || q.Reference.DocumentID == "" {
			return nil, domain.Invalid("reference", "tipo o id de documento inválido")
		}
		items, err = ledger.ListByReference(ctx, *q.Reference, q.Cursor, size+1)
	default:
		return nil, domain.Invalid("query", "indique llave o documento")
	}
	if err != nil {
		return nil, err
	}
	return paginate(items, size), nil
}

// Iter recorre todo el historial de la consulta página a página, de forma perezosa.
// Se detiene en el primer error.
func (uc *HistoryUseCase) Iter(ctx context.Context, q HistoryQuery) iter.Seq2[*entity.StockMovement, error] {
	return func(yield func(*entity.StockMovement, error) bool) {
		for {
			page, err := uc.History(ctx, q)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, m := range page.Items {
				if !yield(m, nil) {
					return
				}
			}
			if page.NextCursor == 0 {
				return
			}
			q.Cursor = page.NextCursor
		}
	}
}

// Overrides movimientos que dejaron saldo negativo por override (auditoría).
func (uc *HistoryUseCase) Overrides(ctx context.Context, cursor int64, pageSize int) (*HistoryPage, error) {
	size := pageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	items, err := uc.core.reader.Ledger.ListOverrides(ctx, cursor, size+1)
	if err != nil {
		return nil, err
	}
	return paginate(items, size), nil
}

func paginate(items []*entity.StockMovement, size int) *HistoryPage {
	page := &HistoryPage{Items: items}
	if len(items) > size {
		page.Items = items[:size]
		page.NextCursor = items[size-1].Seq
	}
	if page.Items == nil {
		page.Items = []*entity.StockMovement{}
	}
	return page
}
