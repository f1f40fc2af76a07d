package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
)

// Requiere una base vacía o dedicada: STOCK_LEDGER_TEST_DATABASE_URL=postgres://...
func openPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("STOCK_LEDGER_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("STOCK_LEDGER_TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPoolFromDSN(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))
	return pool
}

type pgFixture struct {
	pool      *pgxpool.Pool
	core      *inventory.Core
	receipts  *inventory.ReceiptUseCase
	sales     *inventory.SaleUseCase
	transfers *inventory.TransferUseCase
	adjusts   *inventory.AdjustmentUseCase
	history   *inventory.HistoryUseCase
	actor     inventory.Actor
	product   string
	wh1, wh2  string
}

// newPGFixture siembra catálogo con IDs únicos para no chocar con corridas anteriores.
func newPGFixture(t *testing.T) *pgFixture {
	t.Helper()
	pool := openPool(t)
	ctx := context.Background()
	suffix := uuid.NewString()[:8]
	f := &pgFixture{
		pool:    pool,
		actor:   inventory.Actor{UserID: "it-user", CompanyID: "it-" + suffix},
		product: "P-" + suffix,
		wh1:     "W1-" + suffix,
		wh2:     "W2-" + suffix,
	}
	_, err := pool.Exec(ctx, `INSERT INTO products (id, company_id, sku, name) VALUES ($1, $2, $3, 'Integración')`,
		f.product, f.actor.CompanyID, "SKU-"+suffix)
	require.NoError(t, err)
	for _, w := range []string{f.wh1, f.wh2} {
		_, err = pool.Exec(ctx, `INSERT INTO warehouses (id, company_id, name) VALUES ($1, $2, $1)`, w, f.actor.CompanyID)
		require.NoError(t, err)
	}

	f.core = inventory.NewCore(postgres.NewTxRunner(pool, 2*time.Second), postgres.Repos(pool),
		inventory.WithRetry(inventory.RetryConfig{MaxAttempts: 5, InitialInterval: 5 * time.Millisecond, MaxInterval: 50 * time.Millisecond}))
	f.receipts = inventory.NewReceiptUseCase(f.core)
	f.sales = inventory.NewSaleUseCase(f.core)
	f.transfers = inventory.NewTransferUseCase(f.core)
	f.adjusts = inventory.NewAdjustmentUseCase(f.core)
	f.history = inventory.NewHistoryUseCase(f.core)
	return f
}

func (f *pgFixture) balance(t *testing.T, warehouse string) decimal.Decimal {
	t.Helper()
	q, err := f.core.Balances().GetBalance(context.Background(),
		entity.StockKey{ProductID: f.product, WarehouseID: warehouse})
	require.NoError(t, err)
	return q
}

func TestPostgres_RecibirVenderAnular(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	grn, err := f.receipts.Confirm(ctx, f.actor, dto.ReceiptRequest{
		Number:      "GRN-" + f.product,
		WarehouseID: f.wh1,
		Lines:       []dto.ReceiptLineRequest{{ProductID: f.product, Quantity: decimal.NewFromInt(10)}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusConfirmed, grn.Status)
	require.Len(t, grn.Lines, 1)
	assert.NotEmpty(t, grn.Lines[0].MovementID)

	again, err := f.receipts.Confirm(ctx, f.actor, dto.ReceiptRequest{
		Number:      "GRN-" + f.product,
		WarehouseID: f.wh1,
		Lines:       []dto.ReceiptLineRequest{{ProductID: f.product, Quantity: decimal.NewFromInt(10)}},
	})
	require.NoError(t, err)
	assert.Equal(t, grn.ID, again.ID)
	assert.True(t, f.balance(t, f.wh1).Equal(decimal.NewFromInt(10)))

	sale, err := f.sales.Confirm(ctx, f.actor, dto.SaleRequest{
		Number:      "SALE-" + f.product,
		WarehouseID: f.wh1,
		Lines:       []dto.SaleLineRequest{{ProductID: f.product, Quantity: decimal.NewFromInt(4)}},
	})
	require.NoError(t, err)
	assert.True(t, f.balance(t, f.wh1).Equal(decimal.NewFromInt(6)))

	_, err = f.sales.Cancel(ctx, f.actor, sale.ID, "cliente desistió")
	require.NoError(t, err)
	assert.True(t, f.balance(t, f.wh1).Equal(decimal.NewFromInt(10)))

	page, err := f.history.History(ctx, inventory.HistoryQuery{
		Reference: &entity.Reference{DocumentType: entity.DocumentTypeSale, DocumentID: sale.ID},
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].Quantity.Add(page.Items[1].Quantity).IsZero())

	res, err := f.core.Balances().Reconcile(ctx, entity.StockKey{ProductID: f.product, WarehouseID: f.wh1})
	require.NoError(t, err)
	assert.True(t, res.Drift.IsZero())
}

func TestPostgres_StockInsuficienteNoEscribeNada(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	_, err := f.sales.Confirm(ctx, f.actor, dto.SaleRequest{
		Number:      "SALE-EMPTY-" + f.product,
		WarehouseID: f.wh1,
		Lines:       []dto.SaleLineRequest{{ProductID: f.product, Quantity: decimal.NewFromInt(1)}},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, f.balance(t, f.wh1).IsZero())

	page, err := f.history.History(ctx, inventory.HistoryQuery{
		Key: &entity.StockKey{ProductID: f.product, WarehouseID: f.wh1},
	})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestPostgres_VentasConcurrentesNoSobrevenden(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	_, err := f.receipts.Confirm(ctx, f.actor, dto.ReceiptRequest{
		Number:      "GRN-C-" + f.product,
		WarehouseID: f.wh1,
		Lines:       []dto.ReceiptLineRequest{{ProductID: f.product, Quantity: decimal.NewFromInt(5)}},
	})
	require.NoError(t, err)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.sales.Confirm(ctx, f.actor, dto.SaleRequest{
				Number:      "SALE-C-" + f.product + "-" + string(rune('a'+i)),
				WarehouseID: f.wh1,
				Lines:       []dto.SaleLineRequest{{ProductID: f.product, Quantity: decimal.NewFromInt(1)}},
			})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.True(t, f.balance(t, f.wh1).IsZero())
}

func TestPostgres_TransferenciasOpuestasSinDeadlock(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	for _, w := range []string{f.wh1, f.wh2} {
		_, err := f.receipts.Confirm(ctx, f.actor, dto.ReceiptRequest{
			Number:      "GRN-T-" + w,
			WarehouseID: w,
			Lines:       []dto.ReceiptLineRequest{{ProductID: f.product, Quantity: decimal.NewFromInt(20)}},
		})
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 10 {
		from, to := f.wh1, f.wh2
		if i%2 == 1 {
			from, to = to, from
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.transfers.Confirm(ctx, f.actor, dto.TransferRequest{
				FromWarehouseID: from,
				ToWarehouseID:   to,
				Lines:           []dto.TransferLineRequest{{ProductID: f.product, Quantity: decimal.NewFromInt(1)}},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	total := f.balance(t, f.wh1).Add(f.balance(t, f.wh2))
	assert.True(t, total.Equal(decimal.NewFromInt(40)))
}

func TestPostgres_LineasReferencianSusMovimientos(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	draft, err := f.receipts.SaveDraft(ctx, f.actor, dto.ReceiptRequest{
		Number:      "GRN-FK-" + f.product,
		WarehouseID: f.wh1,
		Lines:       []dto.ReceiptLineRequest{{ProductID: f.product, Quantity: decimal.NewFromInt(3)}},
	})
	require.NoError(t, err)
	var pending int
	require.NoError(t, f.pool.QueryRow(ctx,
		`SELECT count(*) FROM goods_receipt_lines WHERE receipt_id = $1 AND movement_id IS NULL`, draft.ID).Scan(&pending))
	assert.Equal(t, 1, pending, "un borrador no referencia movimientos")

	_, err = f.receipts.ConfirmDraft(ctx, f.actor, draft.ID)
	require.NoError(t, err)
	tr, err := f.transfers.Confirm(ctx, f.actor, dto.TransferRequest{
		FromWarehouseID: f.wh1,
		ToWarehouseID:   f.wh2,
		Lines:           []dto.TransferLineRequest{{ProductID: f.product, Quantity: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)

	var linked int
	require.NoError(t, f.pool.QueryRow(ctx, `
		SELECT count(*) FROM goods_receipt_lines l
		JOIN stock_movements m ON m.id = l.movement_id AND m.reference_id = l.receipt_id
		WHERE l.receipt_id = $1`, draft.ID).Scan(&linked))
	assert.Equal(t, 1, linked)
	require.NoError(t, f.pool.QueryRow(ctx, `
		SELECT count(*) FROM stock_transfer_lines l
		JOIN stock_movements mo ON mo.id = l.out_movement_id
		JOIN stock_movements mi ON mi.id = l.in_movement_id
		WHERE l.transfer_id = $1 AND mo.quantity + mi.quantity = 0`, tr.ID).Scan(&linked))
	assert.Equal(t, 1, linked)

	_, err = f.pool.Exec(ctx, `UPDATE stock_transfer_lines SET out_movement_id = 'no-existe' WHERE transfer_id = $1`, tr.ID)
	assert.Error(t, err, "la llave foránea rechaza movimientos inexistentes")
}

// drainOverrides lee la auditoría de overrides desde cursor hasta el final.
func (f *pgFixture) drainOverrides(t *testing.T, cursor int64, seen map[string]bool) int64 {
	t.Helper()
	for {
		page, err := f.history.Overrides(context.Background(), cursor, 50)
		require.NoError(t, err)
		for _, m := range page.Items {
			require.Greater(t, m.Seq, cursor)
			cursor = m.Seq
			if m.ProductID == f.product {
				seen[m.ID] = true
			}
		}
		if page.NextCursor == 0 {
			return cursor
		}
	}
}

func TestPostgres_CursorDeOverridesNoSaltaFilas(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	seen := map[string]bool{}
	cursor := f.drainOverrides(t, 0, seen)

	const writers = 16
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wh := f.wh1
		if i%2 == 1 {
			wh = f.wh2
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.adjusts.Apply(ctx, f.actor, dto.AdjustmentRequest{
				ProductID: f.product, WarehouseID: wh, Quantity: decimal.NewFromInt(-1),
				ReasonCode: "MERMA", Override: true,
			})
			errs <- err
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for polling := true; polling; {
		select {
		case <-done:
			polling = false
		default:
			cursor = f.drainOverrides(t, cursor, seen)
		}
	}
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	f.drainOverrides(t, cursor, seen)

	assert.Len(t, seen, writers)
}
