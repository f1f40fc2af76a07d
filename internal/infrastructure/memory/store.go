// Package memory implementación en memoria de los repositorios del ledger (tests y desarrollo).
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

var _ inventory.TxRunner = (*Store)(nil)

// Store estado en memoria con transacciones serializadas: cada transacción trabaja sobre
// una copia del estado confirmado y la publica al hacer commit. Un error descarta la copia.
type Store struct {
	mu          sync.RWMutex
	committed   *state
	sem         chan struct{}
	lockTimeout time.Duration

	failMu sync.Mutex
	fails  map[string][]error
}

// Option configura el Store.
type Option func(*Store)

// WithLockTimeout espera máxima por el candado de transacción; al vencer se devuelve ErrConflict.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// NewStore construye un Store vacío.
func NewStore(opts ...Option) *Store {
	s := &Store{
		committed: newState(),
		sem:       make(chan struct{}, 1),
		fails:     make(map[string][]error),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run ejecuta fn en una transacción. Commit si fn retorna nil y el ctx sigue vivo.
func (s *Store) Run(ctx context.Context, fn func(tx inventory.TxRepos) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	s.mu.RLock()
	st := s.committed.clone()
	s.mu.RUnlock()

	if err := fn(s.repos(&view{s: s, tx: st})); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.committed = st
	s.mu.Unlock()
	return nil
}

// Reader repositorios de solo lectura sobre el estado confirmado (fuera de transacción).
func (s *Store) Reader() inventory.TxRepos {
	return s.repos(&view{s: s})
}

func (s *Store) repos(v *view) inventory.TxRepos {
	return inventory.TxRepos{
		Ledger:      &ledgerRepo{v: v},
		Balances:    &balanceRepo{v: v},
		Batches:     &batchRepo{v: v},
		Receipts:    newDocRepo(v, "receipt", func(st *state) map[string]*entity.GoodsReceipt { return st.receipts }, cloneReceipt),
		Sales:       newDocRepo(v, "sale", func(st *state) map[string]*entity.Sale { return st.sales }, cloneSale),
		Transfers:   newDocRepo(v, "transfer", func(st *state) map[string]*entity.Transfer { return st.transfers }, cloneTransfer),
		Adjustments: newDocRepo(v, "adjustment", func(st *state) map[string]*entity.Adjustment { return st.adjustments }, cloneAdjustment),
		Returns:     &returnRepo{docRepo: newDocRepo(v, "return", func(st *state) map[string]*entity.SaleReturn { return st.returns }, cloneReturn)},
		Products:    &productRepo{v: v},
		Warehouses:  &warehouseRepo{v: v},
	}
}

func (s *Store) acquire(ctx context.Context) error {
	var timeout <-chan time.Time
	if s.lockTimeout > 0 {
		t := time.NewTimer(s.lockTimeout)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timeout:
		return fmt.Errorf("%w: tiempo de espera de bloqueo agotado", domain.ErrConflict)
	}
}

func (s *Store) release() { <-s.sem }

// FailNext hace que la próxima llamada a op devuelva err (ops: "ledger.append", "balance.apply",
// "balance.lock", "batch.create", "receipt.save", "sale.save", ...). Se acumulan en cola.
func (s *Store) FailNext(op string, err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.fails[op] = append(s.fails[op], err)
}

func (s *Store) injected(op string) error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	q := s.fails[op]
	if len(q) == 0 {
		return nil
	}
	s.fails[op] = q[1:]
	return q[0]
}

// autocommit ejecuta una escritura suelta (fuera de Run) como su propia transacción.
func (s *Store) autocommit(ctx context.Context, fn func(st *state) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	s.mu.RLock()
	st := s.committed.clone()
	s.mu.RUnlock()
	if err := fn(st); err != nil {
		return err
	}
	s.mu.Lock()
	s.committed = st
	s.mu.Unlock()
	return nil
}

// AddProduct registra un producto en el catálogo.
func (s *Store) AddProduct(p entity.Product) {
	_ = s.autocommit(context.Background(), func(st *state) error {
		st.products[p.ID] = p
		return nil
	})
}

// AddWarehouse registra una bodega y sus ubicaciones.
func (s *Store) AddWarehouse(w entity.Warehouse, bins ...entity.Bin) {
	_ = s.autocommit(context.Background(), func(st *state) error {
		st.warehouses[w.ID] = w
		for _, b := range bins {
			b.WarehouseID = w.ID
			st.bins[w.ID+"|"+b.ID] = b
		}
		return nil
	})
}

// CorruptBalance sobrescribe el caché sin pasar por el ledger (simula deriva para reconciliar).
func (s *Store) CorruptBalance(key entity.StockKey, qty decimal.Decimal) {
	_ = s.autocommit(context.Background(), func(st *state) error {
		st.balances[key] = entity.StockBalance{Key: key, Quantity: qty}
		return nil
	})
}

// view acceso al estado: tx != nil dentro de Run; si no, estado confirmado.
type view struct {
	s  *Store
	tx *state
}

func (v *view) state() *state {
	if v.tx != nil {
		return v.tx
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	return v.s.committed
}

func (v *view) write(ctx context.Context, fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	return v.s.autocommit(ctx, fn)
}

func (v *view) fail(op string) error { return v.s.injected(op) }

// state copia completa del almacén. Un estado publicado nunca se modifica:
// la siguiente transacción trabaja sobre un clone.
type state struct {
	seq         int64
	movements   []*entity.StockMovement
	balances    map[entity.StockKey]entity.StockBalance
	batches     map[string]entity.Batch
	receipts    map[string]*entity.GoodsReceipt
	sales       map[string]*entity.Sale
	transfers   map[string]*entity.Transfer
	adjustments map[string]*entity.Adjustment
	returns     map[string]*entity.SaleReturn
	products    map[string]entity.Product
	warehouses  map[string]entity.Warehouse
	bins        map[string]entity.Bin
}

func newState() *state {
	return &state{
		balances:    make(map[entity.StockKey]entity.StockBalance),
		batches:     make(map[string]entity.Batch),
		receipts:    make(map[string]*entity.GoodsReceipt),
		sales:       make(map[string]*entity.Sale),
		transfers:   make(map[string]*entity.Transfer),
		adjustments: make(map[string]*entity.Adjustment),
		returns:     make(map[string]*entity.SaleReturn),
		products:    make(map[string]entity.Product),
		warehouses:  make(map[string]entity.Warehouse),
		bins:        make(map[string]entity.Bin),
	}
}

func (st *state) clone() *state {
	return &state{
		seq: st.seq,
		// cap limitado: un append posterior copia y no pisa el estado publicado
		movements:   st.movements[:len(st.movements):len(st.movements)],
		balances:    maps.Clone(st.balances),
		batches:     maps.Clone(st.batches),
		receipts:    maps.Clone(st.receipts),
		sales:       maps.Clone(st.sales),
		transfers:   maps.Clone(st.transfers),
		adjustments: maps.Clone(st.adjustments),
		returns:     maps.Clone(st.returns),
		products:    maps.Clone(st.products),
		warehouses:  maps.Clone(st.warehouses),
		bins:        maps.Clone(st.bins),
	}
}
