package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Receipts    *inventory.ReceiptUseCase
	Sales       *inventory.SaleUseCase
	Transfers   *inventory.TransferUseCase
	Adjustments *inventory.AdjustmentUseCase
	Returns     *inventory.ReturnUseCase
	History     *inventory.HistoryUseCase
	Balances    *inventory.BalanceCalculator
	Tokens      *jwt.Signer
}

// Router registra las rutas de la API de inventario (todas protegidas con Bearer Token).
func Router(app *fiber.App, deps RouterDeps) {
	inv := app.Group("/api/inventory", AuthMiddleware(deps.Tokens))

	warehouseStaff := RequireRole(RoleAdmin, RoleBodeguero)
	salesStaff := RequireRole(RoleAdmin, RoleVendedor)
	adminOnly := RequireRole(RoleAdmin)

	// Recepción de mercancía (GRN)
	receipts := inv.Group("/receipts")
	receiptHandler := NewReceiptHandler(deps.Receipts)
	receipts.Post("/", warehouseStaff, receiptHandler.Confirm)
	receipts.Post("/drafts", warehouseStaff, receiptHandler.SaveDraft)
	receipts.Post("/:id/confirm", warehouseStaff, receiptHandler.ConfirmDraft)
	receipts.Post("/:id/cancel", warehouseStaff, receiptHandler.Cancel)
	receipts.Get("/:id", receiptHandler.Get)

	// Ventas / POS
	sales := inv.Group("/sales")
	saleHandler := NewSaleHandler(deps.Sales)
	sales.Post("/", salesStaff, saleHandler.Confirm)
	sales.Post("/drafts", salesStaff, saleHandler.SaveDraft)
	sales.Post("/:id/confirm", salesStaff, saleHandler.ConfirmDraft)
	sales.Post("/:id/cancel", salesStaff, saleHandler.Cancel)
	sales.Get("/:id", saleHandler.Get)

	// Traslados
	transfers := inv.Group("/transfers")
	transferHandler := NewTransferHandler(deps.Transfers)
	transfers.Post("/", warehouseStaff, transferHandler.Confirm)
	transfers.Post("/drafts", warehouseStaff, transferHandler.SaveDraft)
	transfers.Post("/:id/confirm", warehouseStaff, transferHandler.ConfirmDraft)
	transfers.Post("/:id/cancel", warehouseStaff, transferHandler.Cancel)
	transfers.Get("/:id", transferHandler.Get)

	// Ajustes
	adjustments := inv.Group("/adjustments")
	adjustmentHandler := NewAdjustmentHandler(deps.Adjustments)
	adjustments.Post("/", warehouseStaff, adjustmentHandler.Apply)
	adjustments.Post("/:id/cancel", adminOnly, adjustmentHandler.Cancel)
	adjustments.Get("/:id", adjustmentHandler.Get)

	// Devoluciones de cliente
	returns := inv.Group("/returns")
	returnHandler := NewReturnHandler(deps.Returns)
	returns.Post("/", salesStaff, returnHandler.Confirm)
	returns.Post("/:id/cancel", salesStaff, returnHandler.Cancel)
	returns.Get("/:id", returnHandler.Get)

	// Consultas y reconciliación
	inventoryHandler := NewInventoryHandler(deps.Balances, deps.History)
	inv.Get("/balance", inventoryHandler.GetBalance)
	inv.Get("/movements", inventoryHandler.ListMovements)
	inv.Get("/movements/overrides", inventoryHandler.ListOverrides)
	inv.Post("/reconcile", adminOnly, inventoryHandler.Reconcile)
}
