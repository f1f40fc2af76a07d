package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestReceipt_IncrementaSaldoYRegistraMovimiento(t *testing.T) {
	f := newFixture(t)
	grn := f.receive(t, "GRN-1", "W1", "P", 10)

	assert.Equal(t, entity.DocumentStatusConfirmed, grn.Status)
	assertDecimal(t, 10, f.balance(t, key("P", "W1")))

	movs := f.movementsOf(t, entity.DocumentTypeGRN, grn.ID)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeReceipt, movs[0].Type)
	assertDecimal(t, 10, movs[0].Quantity)
	assert.Equal(t, "U1", movs[0].CreatedBy)
	assert.Equal(t, movs[0].ID, grn.Lines[0].MovementID)
}

func TestReceipt_ConfirmIdempotentePorNumero(t *testing.T) {
	f := newFixture(t)
	first := f.receive(t, "GRN-1", "W1", "P", 10)
	again := f.receive(t, "GRN-1", "W1", "P", 10)

	assert.Equal(t, first.ID, again.ID)
	assert.Len(t, f.movementsOf(t, entity.DocumentTypeGRN, first.ID), 1)
	assertDecimal(t, 10, f.balance(t, key("P", "W1")))
}

func TestReceipt_DraftSinEfectoHastaConfirmar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft, err := f.receipts.SaveDraft(ctx, admin, dto.ReceiptRequest{
		Number: "GRN-D", WarehouseID: "W1",
		Lines: []dto.ReceiptLineRequest{{ProductID: "P", BinID: "A-01", Quantity: d(4)}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusDraft, draft.Status)
	assertDecimal(t, 0, f.balance(t, key("P", "W1")))

	grn, err := f.receipts.ConfirmDraft(ctx, admin, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusConfirmed, grn.Status)
	assertDecimal(t, 4, f.balance(t, key("P", "W1")))

	_, err = f.receipts.SaveDraft(ctx, admin, dto.ReceiptRequest{
		Number: "GRN-D", WarehouseID: "W1",
		Lines: []dto.ReceiptLineRequest{{ProductID: "P", Quantity: d(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestReceipt_ValidacionRechazaAntesDeEscribir(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := []struct {
		name string
		in   dto.ReceiptRequest
		want error
	}{
		{"cantidad cero", dto.ReceiptRequest{WarehouseID: "W1", Lines: []dto.ReceiptLineRequest{{ProductID: "P"}}}, domain.ErrInvalidInput},
		{"sin líneas", dto.ReceiptRequest{WarehouseID: "W1"}, domain.ErrInvalidInput},
		{"producto inexistente", dto.ReceiptRequest{WarehouseID: "W1", Lines: []dto.ReceiptLineRequest{{ProductID: "NOPE", Quantity: d(1)}}}, domain.ErrInvalidInput},
		{"bodega inexistente", dto.ReceiptRequest{WarehouseID: "W9", Lines: []dto.ReceiptLineRequest{{ProductID: "P", Quantity: d(1)}}}, domain.ErrInvalidInput},
		{"bodega inactiva", dto.ReceiptRequest{WarehouseID: "W3", Lines: []dto.ReceiptLineRequest{{ProductID: "P", Quantity: d(1)}}}, domain.ErrInvalidInput},
		{"ubicación inexistente", dto.ReceiptRequest{WarehouseID: "W1", Lines: []dto.ReceiptLineRequest{{ProductID: "P", BinID: "Z-99", Quantity: d(1)}}}, domain.ErrInvalidInput},
		{"producto de otra empresa", dto.ReceiptRequest{WarehouseID: "W1", Lines: []dto.ReceiptLineRequest{{ProductID: "X", Quantity: d(1)}}}, domain.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.receipts.Confirm(ctx, admin, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 0, f.ledgerSize(t, key("P", "W1")))

	var ve *domain.ValidationError
	_, err := f.receipts.Confirm(ctx, admin, dto.ReceiptRequest{
		WarehouseID: "W1",
		Lines:       []dto.ReceiptLineRequest{{ProductID: "P", Quantity: d(1)}, {ProductID: "P", Quantity: d(-2)}},
	})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 1, ve.Line)
	assert.Equal(t, "quantity", ve.Field)
}

func TestDocumentos_RechazaMasDecimalesDeLosQueSeGuardan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tiny := decimal.RequireFromString("0.00001")
	fine := decimal.RequireFromString("1.00005")
	huge := decimal.New(1, 14)

	for name, tc := range map[string]struct {
		qty   decimal.Decimal
		cost  *decimal.Decimal
		field string
	}{
		"cantidad que redondea a cero": {qty: tiny, field: "quantity"},
		"cantidad con cinco decimales": {qty: fine, field: "quantity"},
		"cantidad fuera de rango":      {qty: huge, field: "quantity"},
		"costo con cinco decimales":    {qty: d(1), cost: &fine, field: "unit_cost"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.receipts.Confirm(ctx, admin, dto.ReceiptRequest{
				WarehouseID: "W1",
				Lines:       []dto.ReceiptLineRequest{{ProductID: "P", Quantity: tc.qty, UnitCost: tc.cost}},
			})
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, 0, ve.Line)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
	assert.Equal(t, 0, f.ledgerSize(t, key("P", "W1")))

	f.receive(t, "GRN-1", "W1", "P", 5)
	_, err := f.sales.Confirm(ctx, admin, dto.SaleRequest{
		WarehouseID: "W1",
		Lines:       []dto.SaleLineRequest{{ProductID: "P", Quantity: fine}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.adjustments.Apply(ctx, admin, dto.AdjustmentRequest{
		ProductID: "P", WarehouseID: "W1", Quantity: tiny.Neg(), ReasonCode: "CONTEO",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assertDecimal(t, 5, f.balance(t, key("P", "W1")))

	_, err = f.receipts.Confirm(ctx, admin, dto.ReceiptRequest{
		WarehouseID: "W1",
		Lines:       []dto.ReceiptLineRequest{{ProductID: "P", Quantity: decimal.RequireFromString("2.50000")}},
	})
	require.NoError(t, err, "ceros a la derecha son válidos")
}

func TestReceipt_LoteRepetidoSumaCantidadYPromediaCosto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cost100, cost200 := d(100), d(200)

	first, err := f.receipts.Confirm(ctx, admin, dto.ReceiptRequest{
		Number: "GRN-L1", WarehouseID: "W1",
		Lines: []dto.ReceiptLineRequest{{ProductID: "P", Quantity: d(10), UnitCost: &cost100, BatchNumber: "L-1"}},
	})
	require.NoError(t, err)
	second, err := f.receipts.Confirm(ctx, admin, dto.ReceiptRequest{
		Number: "GRN-L2", WarehouseID: "W1",
		Lines: []dto.ReceiptLineRequest{{ProductID: "P", Quantity: d(30), UnitCost: &cost200, BatchNumber: "L-1"}},
	})
	require.NoError(t, err)

	batchID := first.Lines[0].BatchID
	require.NotEmpty(t, batchID)
	assert.Equal(t, batchID, second.Lines[0].BatchID)

	b, err := f.store.Reader().Batches.GetByID(ctx, batchID)
	require.NoError(t, err)
	assertDecimal(t, 40, b.Quantity)
	assertDecimal(t, 175, b.UnitCost)
	assertDecimal(t, 40, f.balance(t, entity.StockKey{ProductID: "P", WarehouseID: "W1", BatchID: batchID}))
	assertDecimal(t, 0, f.balance(t, key("P", "W1")), "sin lote es otra llave")

	_, err = f.receipts.Cancel(ctx, admin, second.ID, "error de digitación")
	require.NoError(t, err)
	b, err = f.store.Reader().Batches.GetByID(ctx, batchID)
	require.NoError(t, err)
	assertDecimal(t, 10, b.Quantity)
}

func TestReceipt_CancelPublicaReverso(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	grn := f.receive(t, "GRN-1", "W1", "P", 10)

	cancelled, err := f.receipts.Cancel(ctx, admin, grn.ID, "proveedor equivocado")
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusCancelled, cancelled.Status)
	assert.Equal(t, "proveedor equivocado", cancelled.CancelReason)
	assertDecimal(t, 0, f.balance(t, key("P", "W1")))

	movs := f.movementsOf(t, entity.DocumentTypeGRN, grn.ID)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementTypeReceipt, movs[0].Type)
	assert.Equal(t, entity.MovementTypeReceipt.Reversal(), movs[1].Type)
	assertDecimal(t, -10, movs[1].Quantity)

	again, err := f.receipts.Cancel(ctx, admin, grn.ID, "otra vez")
	require.NoError(t, err)
	assert.Equal(t, "proveedor equivocado", again.CancelReason)
	assert.Len(t, f.movementsOf(t, entity.DocumentTypeGRN, grn.ID), 2)

	_, err = f.receipts.ConfirmDraft(ctx, admin, grn.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestReceipt_CancelConStockConsumidoFalla(t *testing.T) {
	f := newFixture(t)
	grn := f.receive(t, "GRN-1", "W1", "P", 10)
	_, err := f.sell("S-1", "W1", "P", 8)
	require.NoError(t, err)

	_, err = f.receipts.Cancel(context.Background(), admin, grn.ID, "")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assertDecimal(t, 2, f.balance(t, key("P", "W1")))
}

func TestCancel_BorradorEsEstadoInvalido(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft, err := f.sales.SaveDraft(ctx, admin, dto.SaleRequest{
		Number: "S-D", WarehouseID: "W1", Lines: []dto.SaleLineRequest{{ProductID: "P", Quantity: d(1)}},
	})
	require.NoError(t, err)

	_, err = f.sales.Cancel(ctx, admin, draft.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestSale_StockInsuficienteNoEscribeNada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, "GRN-1", "W1", "P", 3)

	draft, err := f.sales.SaveDraft(ctx, admin, dto.SaleRequest{
		Number: "S-1", WarehouseID: "W1", Lines: []dto.SaleLineRequest{{ProductID: "P", Quantity: d(5)}},
	})
	require.NoError(t, err)
	_, err = f.sales.ConfirmDraft(ctx, admin, draft.ID)

	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	require.Len(t, ise.Lines, 1)
	assertDecimal(t, 3, ise.Lines[0].Available)
	assertDecimal(t, 5, ise.Lines[0].Requested)
	assertDecimal(t, 3, f.balance(t, key("P", "W1")))
	assert.Equal(t, 1, f.ledgerSize(t, key("P", "W1")))

	still, err := f.sales.Get(ctx, admin, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusDraft, still.Status)
}

func TestSale_ReportaTodasLasLineasFaltantes(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "GRN-P", "W1", "P", 2)
	f.receive(t, "GRN-Q", "W1", "Q", 10)

	_, err := f.sales.Confirm(context.Background(), admin, dto.SaleRequest{
		WarehouseID: "W1",
		Lines: []dto.SaleLineRequest{
			{ProductID: "P", Quantity: d(1)},
			{ProductID: "Q", Quantity: d(4)},
			{ProductID: "P", Quantity: d(2)},
			{ProductID: "Q", Quantity: d(7)},
		},
	})
	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	require.Len(t, ise.Lines, 2)
	assert.Equal(t, 2, ise.Lines[0].Line)
	assertDecimal(t, 1, ise.Lines[0].Available)
	assert.Equal(t, 3, ise.Lines[1].Line)
	assertDecimal(t, 6, ise.Lines[1].Available)
	assertDecimal(t, 2, f.balance(t, key("P", "W1")))
	assertDecimal(t, 10, f.balance(t, key("Q", "W1")))
}

func TestSale_ConcurrenciaUltimaUnidad(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "GRN-1", "W1", "P", 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.sell([]string{"S-A", "S-B"}[i], "W1", "P", 1)
		}(i)
	}
	wg.Wait()

	ok, short := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			short++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)
	assertDecimal(t, 0, f.balance(t, key("P", "W1")))
}

func TestSale_FalloAMitadNoDejaEscriturasParciales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, "GRN-P", "W1", "P", 5)
	f.receive(t, "GRN-Q", "W1", "Q", 5)

	f.store.FailNext("balance.apply", errors.New("disco lleno"))
	draft, err := f.sales.SaveDraft(ctx, admin, dto.SaleRequest{
		Number: "S-1", WarehouseID: "W1",
		Lines: []dto.SaleLineRequest{{ProductID: "P", Quantity: d(2)}, {ProductID: "Q", Quantity: d(3)}},
	})
	require.NoError(t, err)
	_, err = f.sales.ConfirmDraft(ctx, admin, draft.ID)
	require.Error(t, err)

	assertDecimal(t, 5, f.balance(t, key("P", "W1")))
	assertDecimal(t, 5, f.balance(t, key("Q", "W1")))
	assert.Empty(t, f.movementsOf(t, entity.DocumentTypeSale, draft.ID))

	sale, err := f.sales.ConfirmDraft(ctx, admin, draft.ID)
	require.NoError(t, err)
	assert.Len(t, f.movementsOf(t, entity.DocumentTypeSale, sale.ID), 2)
	assertDecimal(t, 3, f.balance(t, key("P", "W1")))
}

func TestSale_ConflictoSeReintenta(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "GRN-1", "W1", "P", 5)

	f.store.FailNext("ledger.append", domain.ErrConflict)
	sale, err := f.sell("S-1", "W1", "P", 2)
	require.NoError(t, err)
	assert.Len(t, f.movementsOf(t, entity.DocumentTypeSale, sale.ID), 1)
	assertDecimal(t, 3, f.balance(t, key("P", "W1")))
}

func TestSale_ConflictoPersistenteSeDevuelve(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "GRN-1", "W1", "P", 5)

	for range 3 {
		f.store.FailNext("ledger.append", domain.ErrConflict)
	}
	_, err := f.sell("S-1", "W1", "P", 2)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assertDecimal(t, 5, f.balance(t, key("P", "W1")))
}

func TestTransfer_ParDeMovimientosQueSumaCero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, "GRN-1", "W1", "P", 10)

	tr, err := f.transfers.Confirm(ctx, admin, dto.TransferRequest{
		Number: "T-1", FromWarehouseID: "W1", ToWarehouseID: "W2",
		Lines: []dto.TransferLineRequest{{ProductID: "P", Quantity: d(4)}},
	})
	require.NoError(t, err)
	assertDecimal(t, 6, f.balance(t, key("P", "W1")))
	assertDecimal(t, 4, f.balance(t, key("P", "W2")))

	movs := f.movementsOf(t, entity.DocumentTypeTransfer, tr.ID)
	require.Len(t, movs, 2)
	assert.True(t, movs[0].Quantity.Add(movs[1].Quantity).IsZero())
	assert.Equal(t, tr.Lines[0].OutMovementID, movs[0].ID)
	assert.Equal(t, tr.Lines[0].InMovementID, movs[1].ID)

	_, err = f.transfers.Cancel(ctx, admin, tr.ID, "")
	require.NoError(t, err)
	assertDecimal(t, 10, f.balance(t, key("P", "W1")))
	assertDecimal(t, 0, f.balance(t, key("P", "W2")))
}

func TestTransfer_MismaBodegaEsMovimientoInvalido(t *testing.T) {
	f := newFixture(t)
	_, err := f.transfers.Confirm(context.Background(), admin, dto.TransferRequest{
		FromWarehouseID: "W1", ToWarehouseID: "W1",
		Lines: []dto.TransferLineRequest{{ProductID: "P", Quantity: d(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMovement)
}

func TestTransfer_SentidosOpuestosConcurrentes(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "GRN-1", "W1", "P", 50)
	f.receive(t, "GRN-2", "W2", "P", 50)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := "W1", "W2"
			if i%2 == 1 {
				from, to = to, from
			}
			_, err := f.transfers.Confirm(context.Background(), admin, dto.TransferRequest{
				FromWarehouseID: from, ToWarehouseID: to,
				Lines: []dto.TransferLineRequest{{ProductID: "P", Quantity: d(1)}},
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assertDecimal(t, 50, f.balance(t, key("P", "W1")))
	assertDecimal(t, 50, f.balance(t, key("P", "W2")))
}

func TestAdjustment_OverridePermiteNegativoYQuedaAuditado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, "GRN-1", "W1", "P", 2)

	_, err := f.adjustments.Apply(ctx, admin, dto.AdjustmentRequest{
		ProductID: "P", WarehouseID: "W1", Quantity: d(-5), ReasonCode: "CONTEO",
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	adj, err := f.adjustments.Apply(ctx, admin, dto.AdjustmentRequest{
		Number: "ADJ-1", ProductID: "P", WarehouseID: "W1", Quantity: d(-5), ReasonCode: "CONTEO", Override: true,
	})
	require.NoError(t, err)
	assertDecimal(t, -3, f.balance(t, key("P", "W1")))

	page, err := f.history.Overrides(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, adj.MovementID, page.Items[0].ID)

	_, err = f.adjustments.Cancel(ctx, admin, adj.ID, "")
	require.NoError(t, err)
	assertDecimal(t, 2, f.balance(t, key("P", "W1")))
	page, err = f.history.Overrides(ctx, 0, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2, "el reverso hereda el override")
}

func TestAdjustment_RequiereMotivo(t *testing.T) {
	f := newFixture(t)
	_, err := f.adjustments.Apply(context.Background(), admin, dto.AdjustmentRequest{
		ProductID: "P", WarehouseID: "W1", Quantity: d(3),
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "reason_code", ve.Field)
}

func TestReturn_NoDevuelveMasDeLoVendido(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, "GRN-1", "W1", "P", 10)
	sale, err := f.sell("S-1", "W1", "P", 5)
	require.NoError(t, err)
	lineID := sale.Lines[0].ID

	ret, err := f.returns.Confirm(ctx, admin, dto.ReturnRequest{
		Number: "R-1", SaleID: sale.ID, Reason: "defecto",
		Lines: []dto.ReturnLineRequest{{SaleLineID: lineID, Quantity: d(2)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "W1", ret.WarehouseID)
	assert.Equal(t, "P", ret.Lines[0].ProductID)
	assertDecimal(t, 7, f.balance(t, key("P", "W1")))

	_, err = f.returns.Confirm(ctx, admin, dto.ReturnRequest{
		Number: "R-2", SaleID: sale.ID,
		Lines: []dto.ReturnLineRequest{{SaleLineID: lineID, Quantity: d(4)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.returns.Confirm(ctx, admin, dto.ReturnRequest{
		Number: "R-3", SaleID: sale.ID,
		Lines: []dto.ReturnLineRequest{{SaleLineID: lineID, Quantity: d(3)}},
	})
	require.NoError(t, err)
	assertDecimal(t, 10, f.balance(t, key("P", "W1")))

	_, err = f.sales.Cancel(ctx, admin, sale.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidState, "venta con devoluciones no se anula")
}

func TestReturn_VentaNoConfirmada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft, err := f.sales.SaveDraft(ctx, admin, dto.SaleRequest{
		Number: "S-D", WarehouseID: "W1", Lines: []dto.SaleLineRequest{{ProductID: "P", Quantity: d(1)}},
	})
	require.NoError(t, err)

	_, err = f.returns.Confirm(ctx, admin, dto.ReturnRequest{
		SaleID: draft.ID, Lines: []dto.ReturnLineRequest{{SaleLineID: draft.Lines[0].ID, Quantity: d(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestDocumentos_OtraEmpresaNoAccede(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	grn := f.receive(t, "GRN-1", "W1", "P", 1)

	_, err := f.receipts.Get(ctx, intruder, grn.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.receipts.Cancel(ctx, intruder, grn.ID, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.sales.Confirm(ctx, intruder, dto.SaleRequest{
		WarehouseID: "W1", Lines: []dto.SaleLineRequest{{ProductID: "P", Quantity: d(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.receipts.Get(ctx, admin, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// busyLocker rechaza las primeras busy llamadas con ErrConflict y luego concede el candado.
type busyLocker struct {
	mu    sync.Mutex
	busy  int
	calls int
}

func (l *busyLocker) Lock(context.Context, []string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.busy > 0 {
		l.busy--
		return nil, domain.ErrConflict
	}
	return func() {}, nil
}

func TestSale_CandadoDistribuidoOcupadoSeReintenta(t *testing.T) {
	locker := &busyLocker{}
	f := newFixture(t, inventory.WithLocker(locker))
	f.receive(t, "GRN-1", "W1", "P", 5)

	locker.busy, locker.calls = 1, 0
	sale, err := f.sell("S-1", "W1", "P", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, locker.calls)
	assert.Len(t, f.movementsOf(t, entity.DocumentTypeSale, sale.ID), 1)
	assertDecimal(t, 3, f.balance(t, key("P", "W1")))
}

func TestSale_CandadoDistribuidoSiempreOcupadoEsConflicto(t *testing.T) {
	locker := &busyLocker{}
	f := newFixture(t, inventory.WithLocker(locker))
	f.receive(t, "GRN-1", "W1", "P", 5)

	locker.busy, locker.calls = 10, 0
	_, err := f.sell("S-1", "W1", "P", 2)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 3, locker.calls)
	assertDecimal(t, 5, f.balance(t, key("P", "W1")))
}
