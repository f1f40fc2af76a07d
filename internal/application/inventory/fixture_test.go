package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

var (
	admin    = inventory.Actor{UserID: "U1", CompanyID: "C1"}
	intruder = inventory.Actor{UserID: "U9", CompanyID: "C2"}
)

type fixture struct {
	store       *memory.Store
	core        *inventory.Core
	receipts    *inventory.ReceiptUseCase
	sales       *inventory.SaleUseCase
	transfers   *inventory.TransferUseCase
	adjustments *inventory.AdjustmentUseCase
	returns     *inventory.ReturnUseCase
	history     *inventory.HistoryUseCase
}

func newFixture(t *testing.T, opts ...inventory.Option) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddWarehouse(entity.Warehouse{ID: "W1", CompanyID: "C1", Name: "Principal", Active: true}, entity.Bin{ID: "A-01", Code: "A-01"})
	store.AddWarehouse(entity.Warehouse{ID: "W2", CompanyID: "C1", Name: "Sucursal", Active: true})
	store.AddWarehouse(entity.Warehouse{ID: "W3", CompanyID: "C1", Name: "Cerrada", Active: false})
	store.AddProduct(entity.Product{ID: "P", CompanyID: "C1", SKU: "SKU-P", Name: "Producto P"})
	store.AddProduct(entity.Product{ID: "Q", CompanyID: "C1", SKU: "SKU-Q", Name: "Producto Q"})
	store.AddProduct(entity.Product{ID: "X", CompanyID: "C2", SKU: "SKU-X", Name: "Ajeno"})

	all := append([]inventory.Option{
		inventory.WithRetry(inventory.RetryConfig{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}),
	}, opts...)
	core := inventory.NewCore(store, store.Reader(), all...)
	return &fixture{
		store:       store,
		core:        core,
		receipts:    inventory.NewReceiptUseCase(core),
		sales:       inventory.NewSaleUseCase(core),
		transfers:   inventory.NewTransferUseCase(core),
		adjustments: inventory.NewAdjustmentUseCase(core),
		returns:     inventory.NewReturnUseCase(core),
		history:     inventory.NewHistoryUseCase(core),
	}
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func key(product, warehouse string) entity.StockKey {
	return entity.StockKey{ProductID: product, WarehouseID: warehouse}
}

func (f *fixture) receive(t *testing.T, number, warehouse, product string, qty int64) *entity.GoodsReceipt {
	t.Helper()
	grn, err := f.receipts.Confirm(context.Background(), admin, dto.ReceiptRequest{
		Number:      number,
		WarehouseID: warehouse,
		Lines:       []dto.ReceiptLineRequest{{ProductID: product, Quantity: d(qty)}},
	})
	require.NoError(t, err)
	return grn
}

func (f *fixture) sell(number, warehouse, product string, qty int64) (*entity.Sale, error) {
	return f.sales.Confirm(context.Background(), admin, dto.SaleRequest{
		Number:      number,
		WarehouseID: warehouse,
		Lines:       []dto.SaleLineRequest{{ProductID: product, Quantity: d(qty)}},
	})
}

func (f *fixture) balance(t *testing.T, k entity.StockKey) decimal.Decimal {
	t.Helper()
	q, err := f.core.Balances().GetBalance(context.Background(), k)
	require.NoError(t, err)
	return q
}

func (f *fixture) movementsOf(t *testing.T, doc entity.DocumentType, id string) []*entity.StockMovement {
	t.Helper()
	page, err := f.history.History(context.Background(), inventory.HistoryQuery{
		Reference: &entity.Reference{DocumentType: doc, DocumentID: id},
		PageSize:  500,
	})
	require.NoError(t, err)
	return page.Items
}

func (f *fixture) ledgerSize(t *testing.T, k entity.StockKey) int {
	t.Helper()
	n := 0
	for _, err := range f.history.Iter(context.Background(), inventory.HistoryQuery{Key: &k, PageSize: 7}) {
		require.NoError(t, err)
		n++
	}
	return n
}

func assertDecimal(t *testing.T, want int64, got decimal.Decimal, msg ...any) {
	t.Helper()
	require.Truef(t, got.Equal(d(want)), "esperado %d, obtenido %s %v", want, got, msg)
}
