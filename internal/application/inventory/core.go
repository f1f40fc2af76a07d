package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Core dependencias compartidas por los orquestadores de documentos.
type Core struct {
	tx       TxRunner
	reader   TxRepos
	guard    *Guard
	balances *BalanceCalculator
	recorder *Recorder
	retry    RetryConfig
	observer Observer
	log      *logger.Logger
	now      func() time.Time
}

// Option configura el Core.
type Option func(*Core)

// WithLocker agrega un candado entre procesos previo a la transacción.
func WithLocker(l KeyLocker) Option {
	return func(c *Core) {
		if l != nil {
			c.guard.locker = l
		}
	}
}

// WithObserver registra eventos del ledger (métricas).
func WithObserver(o Observer) Option {
	return func(c *Core) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithLogger define el logger estructurado.
func WithLogger(l *logger.Logger) Option {
	return func(c *Core) {
		if l != nil {
			c.log = l.Component("inventory")
		}
	}
}

// WithRetry define la política de reintentos ante conflicto.
func WithRetry(r RetryConfig) Option {
	return func(c *Core) { c.retry = r }
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Core) { c.now = now }
}

// NewCore construye el núcleo del ledger. reader son repositorios sobre el pool
// para lecturas fuera de transacción.
func NewCore(tx TxRunner, reader TxRepos, opts ...Option) *Core {
	c := &Core{
		tx:       tx,
		reader:   reader,
		guard:    &Guard{locker: noopLocker{}},
		retry:    DefaultRetryConfig(),
		observer: noopObserver{},
		log:      logger.Nop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(c)
	}
	c.guard.log = c.log
	c.balances = &BalanceCalculator{core: c}
	c.recorder = &Recorder{guard: c.guard, balances: c.balances, log: c.log, now: c.now}
	return c
}

// Balances calculadora de saldos del núcleo.
func (c *Core) Balances() *BalanceCalculator { return c.balances }

// run ejecuta fn en una transacción, reintentando la transacción completa ante ErrConflict.
// lockNames se toman en el KeyLocker antes de abrir la transacción.
func (c *Core) run(ctx context.Context, op string, lockNames []string, fn func(tx TxRepos) error) error {
	return c.retry.do(ctx, func() error {
		release, err := c.guard.Acquire(ctx, lockNames)
		if err != nil {
			return err
		}
		defer release()
		return c.tx.Run(ctx, fn)
	}, func(err error, wait time.Duration) {
		c.log.Warn().Err(err).Str("op", op).Dur("wait", wait).Msg("conflicto de concurrencia, reintentando")
		c.observer.ConflictRetry(op)
	})
}

// finish registra métricas y log del resultado de una operación de documento.
func (c *Core) finish(doc entity.DocumentType, action, id string, movements []*entity.StockMovement, err error) {
	if err != nil {
		c.observer.DocumentProcessed(doc, action, resultLabel(err))
		c.log.Warn().Err(err).Str("document_type", string(doc)).Str("action", action).Str("document_id", id).Msg("operación de inventario rechazada")
		return
	}
	c.observer.DocumentProcessed(doc, action, "ok")
	if len(movements) > 0 {
		c.observer.MovementsRecorded(movements)
	}
	c.log.Info().Str("document_type", string(doc)).Str("action", action).Str("document_id", id).
		Int("movements", len(movements)).Msg("operación de inventario aplicada")
}

// resultLabel etiqueta de métrica por clase de error.
func resultLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidMovement):
		return "invalid"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
