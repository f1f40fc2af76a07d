package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// document restringe a punteros de documentos con cabecera (GRN, venta, traslado, ajuste, devolución).
type document[E any] interface {
	*E
	Header() *entity.DocumentHeader
}

// documentRepo forma común de los repositorios de documentos.
type documentRepo[D any] interface {
	Save(ctx context.Context, doc D) error
	GetByID(ctx context.Context, id string) (D, error)
	GetForUpdate(ctx context.Context, id string) (D, error)
	GetByNumberForUpdate(ctx context.Context, number string) (D, error)
}

// lifecycle máquina de estados DRAFT -> CONFIRMED -> CANCELLED de un tipo de documento.
// Confirmar publica los movimientos una sola vez; anular publica los reversos.
type lifecycle[E any, D document[E]] struct {
	core *Core
	doc  entity.DocumentType
	repo func(TxRepos) documentRepo[D]
	// locks nombres de candado externo del documento.
	locks func(D) []string
	// check validaciones contra catálogo, al guardar y al confirmar.
	check func(ctx context.Context, tx TxRepos, actor Actor, doc D) error
	// post publica los movimientos y anota sus ids en las líneas.
	post func(ctx context.Context, tx TxRepos, actor Actor, doc D, now time.Time) ([]*entity.StockMovement, error)
	// beforeCancel / afterCancel opcionales.
	beforeCancel func(ctx context.Context, tx TxRepos, doc D) error
	afterCancel  func(ctx context.Context, tx TxRepos, doc D) error
}

func (l *lifecycle[E, D]) op(action string) string {
	return fmt.Sprintf("%s.%s", l.doc, action)
}

// get lee el documento fuera de transacción validando la empresa.
func (l *lifecycle[E, D]) get(ctx context.Context, actor Actor, id string) (D, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	d, err := l.repo(l.core.reader).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, notFound(l.doc, id)
	}
	if err := checkOwner(actor, d.Header()); err != nil {
		return nil, err
	}
	return d, nil
}

func (l *lifecycle[E, D]) lockDoc(ctx context.Context, tx TxRepos, actor Actor, id string) (D, error) {
	d, err := l.repo(tx).GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, notFound(l.doc, id)
	}
	if err := checkOwner(actor, d.Header()); err != nil {
		return nil, err
	}
	return d, nil
}

// save crea o reemplaza el borrador con el número del documento construido.
// Si el número ya existe confirmado o anulado se devuelve ese documento sin tocarlo.
func (l *lifecycle[E, D]) save(ctx context.Context, actor Actor, build func() D) (D, error) {
	var out D
	err := l.core.run(ctx, l.op("draft"), nil, func(tx TxRepos) error {
		d := build()
		h := d.Header()
		repo := l.repo(tx)
		existing, err := repo.GetByNumberForUpdate(ctx, h.Number)
		if err != nil {
			return err
		}
		if existing != nil {
			eh := existing.Header()
			if err := checkOwner(actor, eh); err != nil {
				return err
			}
			if !eh.IsDraft() {
				out = existing
				return nil
			}
			h.ID, h.CreatedBy, h.CreatedAt = eh.ID, eh.CreatedBy, eh.CreatedAt
		}
		if err := l.check(ctx, tx, actor, d); err != nil {
			return err
		}
		if err := repo.Save(ctx, d); err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// saveDraft guarda el borrador; un número ya confirmado o anulado es ErrInvalidState.
func (l *lifecycle[E, D]) saveDraft(ctx context.Context, actor Actor, build func() D) (D, error) {
	d, err := l.save(ctx, actor, build)
	if err != nil {
		l.core.finish(l.doc, "draft", "", nil, err)
		return nil, err
	}
	if h := d.Header(); !h.IsDraft() {
		return d, fmt.Errorf("%w: %s %s está %s", domain.ErrInvalidState, l.doc, h.Number, h.Status)
	}
	return d, nil
}

// saveAndConfirm guarda el borrador en su propia transacción y luego lo confirma.
// Repetir con el mismo número devuelve el documento ya confirmado sin publicar nada.
func (l *lifecycle[E, D]) saveAndConfirm(ctx context.Context, actor Actor, build func() D) (D, error) {
	d, err := l.save(ctx, actor, build)
	if err != nil {
		l.core.finish(l.doc, "confirm", "", nil, err)
		return nil, err
	}
	if !d.Header().IsDraft() {
		l.core.log.Debug().Str("document_type", string(l.doc)).Str("number", d.Header().Number).Msg("confirmación repetida, sin efecto")
		return d, nil
	}
	return l.confirm(ctx, actor, d.Header().ID)
}

// confirm publica los movimientos del borrador. Un documento ya confirmado se devuelve tal cual.
func (l *lifecycle[E, D]) confirm(ctx context.Context, actor Actor, id string) (D, error) {
	var (
		out  D
		movs []*entity.StockMovement
	)
	pre, err := l.get(ctx, actor, id)
	if err == nil {
		err = l.core.run(ctx, l.op("confirm"), l.locks(pre), func(tx TxRepos) error {
			movs = nil
			d, err := l.lockDoc(ctx, tx, actor, id)
			if err != nil {
				return err
			}
			h := d.Header()
			switch h.Status {
			case entity.DocumentStatusConfirmed:
				out = d
				return nil
			case entity.DocumentStatusCancelled:
				return fmt.Errorf("%w: %s %s está anulado", domain.ErrInvalidState, l.doc, h.Number)
			}
			if err := l.check(ctx, tx, actor, d); err != nil {
				return err
			}
			now := l.core.now()
			m, err := l.post(ctx, tx, actor, d, now)
			if err != nil {
				return err
			}
			h.MarkConfirmed(now)
			if err := l.repo(tx).Save(ctx, d); err != nil {
				return err
			}
			out, movs = d, m
			return nil
		})
	}
	l.core.finish(l.doc, "confirm", id, movs, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// cancel publica los reversos de un documento confirmado. Anular dos veces no tiene efecto.
func (l *lifecycle[E, D]) cancel(ctx context.Context, actor Actor, id, reason string) (D, error) {
	var (
		out  D
		movs []*entity.StockMovement
	)
	pre, err := l.get(ctx, actor, id)
	if err == nil {
		err = l.core.run(ctx, l.op("cancel"), l.locks(pre), func(tx TxRepos) error {
			movs = nil
			d, err := l.lockDoc(ctx, tx, actor, id)
			if err != nil {
				return err
			}
			h := d.Header()
			switch h.Status {
			case entity.DocumentStatusCancelled:
				out = d
				return nil
			case entity.DocumentStatusDraft:
				return fmt.Errorf("%w: %s %s es borrador, no tiene movimientos que anular", domain.ErrInvalidState, l.doc, h.Number)
			}
			if l.beforeCancel != nil {
				if err := l.beforeCancel(ctx, tx, d); err != nil {
					return err
				}
			}
			m, err := l.core.recorder.Reverse(ctx, tx, entity.Reference{DocumentType: l.doc, DocumentID: h.ID}, actor.UserID, reason)
			if err != nil {
				return err
			}
			if l.afterCancel != nil {
				if err := l.afterCancel(ctx, tx, d); err != nil {
					return err
				}
			}
			h.MarkCancelled(l.core.now(), actor.UserID, reason)
			if err := l.repo(tx).Save(ctx, d); err != nil {
				return err
			}
			out, movs = d, m
			return nil
		})
	}
	l.core.finish(l.doc, "cancel", id, movs, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}
