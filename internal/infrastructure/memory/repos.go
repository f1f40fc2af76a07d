package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.LedgerRepository     = (*ledgerRepo)(nil)
	_ repository.BalanceRepository    = (*balanceRepo)(nil)
	_ repository.BatchRepository      = (*batchRepo)(nil)
	_ repository.SaleReturnRepository = (*returnRepo)(nil)
	_ repository.ProductRepository    = (*productRepo)(nil)
	_ repository.WarehouseRepository  = (*warehouseRepo)(nil)
)

type ledgerRepo struct{ v *view }

func (r *ledgerRepo) Append(ctx context.Context, movements []*entity.StockMovement) error {
	if err := r.v.fail("ledger.append"); err != nil {
		return err
	}
	for i, m := range movements {
		if m.ProductID == "" || m.WarehouseID == "" || m.Quantity.IsZero() || !m.Type.Valid() {
			return fmt.Errorf("%w: movimiento %d", domain.ErrInvalidMovement, i)
		}
	}
	return r.v.write(ctx, func(st *state) error {
		for _, m := range movements {
			if m.ID == "" {
				m.ID = uuid.New().String()
			}
			st.seq++
			m.Seq = st.seq
			cp := *m
			st.movements = append(st.movements, &cp)
		}
		return nil
	})
}

func (r *ledgerRepo) SumBalance(_ context.Context, key entity.StockKey) (decimal.Decimal, error) {
	return sumLedger(r.v.state(), key), nil
}

func sumLedger(st *state, key entity.StockKey) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range st.movements {
		if m.Key() == key {
			sum = sum.Add(m.Quantity)
		}
	}
	return sum
}

func (r *ledgerRepo) ListByKey(_ context.Context, key entity.StockKey, afterSeq int64, limit int) ([]*entity.StockMovement, error) {
	return listMovements(r.v.state(), afterSeq, limit, func(m *entity.StockMovement) bool { return m.Key() == key }), nil
}

func (r *ledgerRepo) ListByReference(_ context.Context, ref entity.Reference, afterSeq int64, limit int) ([]*entity.StockMovement, error) {
	return listMovements(r.v.state(), afterSeq, limit, func(m *entity.StockMovement) bool { return m.Reference == ref }), nil
}

func (r *ledgerRepo) ListOverrides(_ context.Context, afterSeq int64, limit int) ([]*entity.StockMovement, error) {
	return listMovements(r.v.state(), afterSeq, limit, func(m *entity.StockMovement) bool { return m.Override }), nil
}

func (r *ledgerRepo) ListKeys(_ context.Context) ([]entity.StockKey, error) {
	st := r.v.state()
	seen := make(map[entity.StockKey]struct{})
	var out []entity.StockKey
	for _, m := range st.movements {
		k := m.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	slices.SortFunc(out, func(a, b entity.StockKey) int { return strings.Compare(a.String(), b.String()) })
	return out, nil
}

func listMovements(st *state, afterSeq int64, limit int, match func(*entity.StockMovement) bool) []*entity.StockMovement {
	out := []*entity.StockMovement{}
	for _, m := range st.movements {
		if m.Seq <= afterSeq || !match(m) {
			continue
		}
		cp := *m
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

type balanceRepo struct{ v *view }

func (r *balanceRepo) Get(_ context.Context, key entity.StockKey) (*entity.StockBalance, error) {
	b, ok := r.v.state().balances[key]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *balanceRepo) EnsureFromLedger(ctx context.Context, key entity.StockKey) error {
	return r.v.write(ctx, func(st *state) error {
		ensureBalance(st, key)
		return nil
	})
}

func ensureBalance(st *state, key entity.StockKey) entity.StockBalance {
	if b, ok := st.balances[key]; ok {
		return b
	}
	b := entity.StockBalance{Key: key, Quantity: sumLedger(st, key)}
	st.balances[key] = b
	return b
}

func (r *balanceRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockBalance, error) {
	if err := r.v.fail("balance.lock"); err != nil {
		return nil, err
	}
	var out entity.StockBalance
	err := r.v.write(ctx, func(st *state) error {
		out = ensureBalance(st, key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *balanceRepo) ApplyDelta(ctx context.Context, key entity.StockKey, delta decimal.Decimal) error {
	if err := r.v.fail("balance.apply"); err != nil {
		return err
	}
	return r.v.write(ctx, func(st *state) error {
		b, ok := st.balances[key]
		if !ok {
			return fmt.Errorf("%w: saldo %s sin bloquear", domain.ErrStorage, key.String())
		}
		b.Quantity = b.Quantity.Add(delta)
		st.balances[key] = b
		return nil
	})
}

func (r *balanceRepo) Set(ctx context.Context, key entity.StockKey, quantity decimal.Decimal) error {
	return r.v.write(ctx, func(st *state) error {
		st.balances[key] = entity.StockBalance{Key: key, Quantity: quantity}
		return nil
	})
}

type batchRepo struct{ v *view }

func (r *batchRepo) GetByID(_ context.Context, id string) (*entity.Batch, error) {
	b, ok := r.v.state().batches[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *batchRepo) GetByLotForUpdate(_ context.Context, productID, warehouseID, lotNumber string) (*entity.Batch, error) {
	for _, b := range r.v.state().batches {
		if b.ProductID == productID && b.WarehouseID == warehouseID && b.LotNumber == lotNumber {
			return &b, nil
		}
	}
	return nil, nil
}

func (r *batchRepo) Create(ctx context.Context, batch *entity.Batch) error {
	if err := r.v.fail("batch.create"); err != nil {
		return err
	}
	return r.v.write(ctx, func(st *state) error {
		for _, b := range st.batches {
			if b.ProductID == batch.ProductID && b.WarehouseID == batch.WarehouseID && b.LotNumber == batch.LotNumber {
				return fmt.Errorf("%w: lote %s duplicado", domain.ErrConflict, batch.LotNumber)
			}
		}
		st.batches[batch.ID] = *batch
		return nil
	})
}

func (r *batchRepo) UpdateReceived(ctx context.Context, id string, quantity, unitCost decimal.Decimal) error {
	return r.v.write(ctx, func(st *state) error {
		b, ok := st.batches[id]
		if !ok {
			return fmt.Errorf("%w: lote %s", domain.ErrNotFound, id)
		}
		b.Quantity, b.UnitCost = quantity, unitCost
		st.batches[id] = b
		return nil
	})
}

// docRepo repositorio genérico de documentos con cabecera.
type docRepo[E any, D interface {
	*E
	Header() *entity.DocumentHeader
}] struct {
	v     *view
	name  string
	table func(*state) map[string]D
	clone func(D) D
}

func newDocRepo[E any, D interface {
	*E
	Header() *entity.DocumentHeader
}](v *view, name string, table func(*state) map[string]D, clone func(D) D) *docRepo[E, D] {
	return &docRepo[E, D]{v: v, name: name, table: table, clone: clone}
}

func (r *docRepo[E, D]) Save(ctx context.Context, doc D) error {
	if err := r.v.fail(r.name + ".save"); err != nil {
		return err
	}
	h := doc.Header()
	return r.v.write(ctx, func(st *state) error {
		t := r.table(st)
		for id, other := range t {
			if id != h.ID && other.Header().Number == h.Number {
				return fmt.Errorf("%w: número %s duplicado", domain.ErrConflict, h.Number)
			}
		}
		t[h.ID] = r.clone(doc)
		return nil
	})
}

func (r *docRepo[E, D]) GetByID(_ context.Context, id string) (D, error) {
	d, ok := r.table(r.v.state())[id]
	if !ok {
		return nil, nil
	}
	return r.clone(d), nil
}

func (r *docRepo[E, D]) GetForUpdate(ctx context.Context, id string) (D, error) {
	return r.GetByID(ctx, id)
}

func (r *docRepo[E, D]) GetByNumberForUpdate(_ context.Context, number string) (D, error) {
	for _, d := range r.table(r.v.state()) {
		if d.Header().Number == number {
			return r.clone(d), nil
		}
	}
	return nil, nil
}

type returnRepo struct {
	*docRepo[entity.SaleReturn, *entity.SaleReturn]
}

func (r *returnRepo) ListConfirmedBySale(_ context.Context, saleID string) ([]*entity.SaleReturn, error) {
	var out []*entity.SaleReturn
	for _, d := range r.v.state().returns {
		if d.SaleID == saleID && d.Status == entity.DocumentStatusConfirmed {
			out = append(out, cloneReturn(d))
		}
	}
	slices.SortFunc(out, func(a, b *entity.SaleReturn) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

type productRepo struct{ v *view }

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.v.state().products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

type warehouseRepo struct{ v *view }

func (r *warehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	w, ok := r.v.state().warehouses[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *warehouseRepo) GetBin(_ context.Context, warehouseID, binID string) (*entity.Bin, error) {
	b, ok := r.v.state().bins[warehouseID+"|"+binID]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func cloneReceipt(d *entity.GoodsReceipt) *entity.GoodsReceipt {
	cp := *d
	cp.Lines = slices.Clone(d.Lines)
	return &cp
}

func cloneSale(d *entity.Sale) *entity.Sale {
	cp := *d
	cp.Lines = slices.Clone(d.Lines)
	return &cp
}

func cloneTransfer(d *entity.Transfer) *entity.Transfer {
	cp := *d
	cp.Lines = slices.Clone(d.Lines)
	return &cp
}

func cloneAdjustment(d *entity.Adjustment) *entity.Adjustment {
	cp := *d
	return &cp
}

func cloneReturn(d *entity.SaleReturn) *entity.SaleReturn {
	cp := *d
	cp.Lines = slices.Clone(d.Lines)
	return &cp
}
