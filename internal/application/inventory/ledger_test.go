package inventory_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestBalance_LlaveSinMovimientosEsCero(t *testing.T) {
	f := newFixture(t)
	assertDecimal(t, 0, f.balance(t, key("P", "W1")))

	_, err := f.core.Balances().GetBalance(context.Background(), entity.StockKey{ProductID: "P"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReconcile_CorrigeDerivaDelCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, "GRN-1", "W1", "P", 10)
	_, err := f.sell("S-1", "W1", "P", 4)
	require.NoError(t, err)

	f.store.CorruptBalance(key("P", "W1"), d(99))
	assertDecimal(t, 99, f.balance(t, key("P", "W1")))

	res, err := f.core.Balances().Reconcile(ctx, key("P", "W1"))
	require.NoError(t, err)
	assertDecimal(t, 99, res.Previous)
	assertDecimal(t, 6, res.Recomputed)
	assertDecimal(t, -93, res.Drift)
	assertDecimal(t, 6, f.balance(t, key("P", "W1")))

	res, err = f.core.Balances().Reconcile(ctx, key("P", "W1"))
	require.NoError(t, err)
	assert.True(t, res.Drift.IsZero(), "segunda reconciliación sin deriva")
}

func TestHistory_PaginaPorCursorEnOrdenDeInsercion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, n := range []string{"G1", "G2", "G3", "G4", "G5"} {
		f.receive(t, n, "W1", "P", 1)
	}
	k := key("P", "W1")

	var seqs []int64
	q := inventory.HistoryQuery{Key: &k, PageSize: 2}
	pages := 0
	for {
		page, err := f.history.History(ctx, q)
		require.NoError(t, err)
		pages++
		for _, m := range page.Items {
			seqs = append(seqs, m.Seq)
		}
		if page.NextCursor == 0 {
			break
		}
		q.Cursor = page.NextCursor
	}
	assert.Equal(t, 3, pages)
	require.Len(t, seqs, 5)
	for i := 1; i < len(seqs); i++ {
		assert.Less(t, seqs[i-1], seqs[i])
	}

	_, err := f.history.History(ctx, inventory.HistoryQuery{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestHistory_IterSeDetieneAlCortar(t *testing.T) {
	f := newFixture(t)
	for _, n := range []string{"G1", "G2", "G3"} {
		f.receive(t, n, "W1", "P", 1)
	}
	k := key("P", "W1")
	n := 0
	for m, err := range f.history.Iter(context.Background(), inventory.HistoryQuery{Key: &k, PageSize: 1}) {
		require.NoError(t, err)
		require.NotNil(t, m)
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

// Secuencia aleatoria de documentos: al final cada saldo coincide con la suma del
// ledger y ninguna llave queda en negativo.
func TestLedger_ConservacionBajoSecuenciaAleatoria(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	products := []string{"P", "Q"}
	warehouses := []string{"W1", "W2"}

	for i := 0; i < 150; i++ {
		p := products[rng.Intn(len(products))]
		w := warehouses[rng.Intn(len(warehouses))]
		qty := d(int64(rng.Intn(5) + 1))
		var err error
		switch rng.Intn(3) {
		case 0:
			_, err = f.receipts.Confirm(ctx, admin, dto.ReceiptRequest{WarehouseID: w, Lines: []dto.ReceiptLineRequest{{ProductID: p, Quantity: qty}}})
		case 1:
			_, err = f.sales.Confirm(ctx, admin, dto.SaleRequest{WarehouseID: w, Lines: []dto.SaleLineRequest{{ProductID: p, Quantity: qty}}})
		case 2:
			to := "W2"
			if w == "W2" {
				to = "W1"
			}
			_, err = f.transfers.Confirm(ctx, admin, dto.TransferRequest{FromWarehouseID: w, ToWarehouseID: to, Lines: []dto.TransferLineRequest{{ProductID: p, Quantity: qty}}})
		}
		if err != nil && !errors.Is(err, domain.ErrInsufficientStock) {
			t.Fatalf("paso %d: %v", i, err)
		}
	}

	results, err := f.core.Balances().ReconcileAll(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Truef(t, r.Drift.IsZero(), "deriva en %s: %s", r.Key.String(), r.Drift)
		assert.False(t, r.Recomputed.IsNegative(), "saldo negativo en %s", r.Key.String())
	}
}
