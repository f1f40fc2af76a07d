package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// InventoryHandler consultas de saldo e historial, y reconciliación.
type InventoryHandler struct {
	balances *inventory.BalanceCalculator
	history  *inventory.HistoryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(balances *inventory.BalanceCalculator, history *inventory.HistoryUseCase) *InventoryHandler {
	return &InventoryHandler{balances: balances, history: history}
}

// GetBalance godoc
// @Summary      Saldo de una llave
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true   "Producto"
// @Param        warehouse_id  query  string  true   "Bodega"
// @Param        batch_id      query  string  false  "Lote"
// @Success      200  {object}  dto.BalanceResponse
// @Failure      400  {object}  dto.ValidationErrorResponse
// @Router       /api/inventory/balance [get]
func (h *InventoryHandler) GetBalance(c *fiber.Ctx) error {
	if _, ok := actorFrom(c); !ok {
		return unauthorized(c)
	}
	key := keyFromQuery(c)
	qty, err := h.balances.GetBalance(c.UserContext(), key)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.BalanceResponse{
		ProductID:   key.ProductID,
		WarehouseID: key.WarehouseID,
		BatchID:     key.BatchID,
		Quantity:    qty,
	})
}

// ListMovements godoc
// @Summary      Historial de movimientos
// @Description  Filtra por llave (product_id + warehouse_id [+ batch_id]) o por documento (document_type + document_id).
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id     query  string  false  "Producto"
// @Param        warehouse_id   query  string  false  "Bodega"
// @Param        batch_id       query  string  false  "Lote"
// @Param        document_type  query  string  false  "GRN | SALE | TRANSFER | ADJUSTMENT | RETURN"
// @Param        document_id    query  string  false  "ID del documento"
// @Param        cursor         query  int     false  "seq del último movimiento visto"
// @Param        page_size      query  int     false  "Tamaño de página"  default(50)
// @Success      200  {object}  dto.MovementPageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	if _, ok := actorFrom(c); !ok {
		return unauthorized(c)
	}
	cursor, err := cursorFromQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	q := inventory.HistoryQuery{Cursor: cursor, PageSize: c.QueryInt("page_size", 0)}
	if docType := c.Query("document_type"); docType != "" || c.Query("document_id") != "" {
		q.Reference = &entity.Reference{DocumentType: entity.DocumentType(docType), DocumentID: c.Query("document_id")}
	}
	if c.Query("product_id") != "" || c.Query("warehouse_id") != "" {
		key := keyFromQuery(c)
		q.Key = &key
	}
	page, err := h.history.History(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toMovementPage(page))
}

// ListOverrides godoc
// @Summary      Auditoría de overrides
// @Description  Movimientos que dejaron una llave en negativo por override.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        cursor     query  int  false  "seq del último movimiento visto"
// @Param        page_size  query  int  false  "Tamaño de página"  default(50)
// @Success      200  {object}  dto.MovementPageResponse
// @Router       /api/inventory/movements/overrides [get]
func (h *InventoryHandler) ListOverrides(c *fiber.Ctx) error {
	if _, ok := actorFrom(c); !ok {
		return unauthorized(c)
	}
	cursor, err := cursorFromQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	page, err := h.history.Overrides(c.UserContext(), cursor, c.QueryInt("page_size", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toMovementPage(page))
}

// Reconcile godoc
// @Summary      Reconciliar saldos contra el ledger
// @Description  Recalcula una llave, o todas con all=true, y corrige la caché si hay diferencia.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReconcileRequest  true  "Llave o all"
// @Success      200  {array}   dto.ReconcileResponse
// @Failure      400  {object}  dto.ValidationErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventory/reconcile [post]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	if _, ok := actorFrom(c); !ok {
		return unauthorized(c)
	}
	var in dto.ReconcileRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}

	var results []inventory.ReconcileResult
	if in.All {
		all, err := h.balances.ReconcileAll(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}
		results = all
	} else {
		res, err := h.balances.Reconcile(c.UserContext(), entity.StockKey{
			ProductID:   in.ProductID,
			WarehouseID: in.WarehouseID,
			BatchID:     in.BatchID,
		})
		if err != nil {
			return writeError(c, err)
		}
		results = []inventory.ReconcileResult{*res}
	}

	out := make([]dto.ReconcileResponse, 0, len(results))
	for _, r := range results {
		out = append(out, toReconcileResponse(r))
	}
	return c.JSON(out)
}

func keyFromQuery(c *fiber.Ctx) entity.StockKey {
	return entity.StockKey{
		ProductID:   c.Query("product_id"),
		WarehouseID: c.Query("warehouse_id"),
		BatchID:     c.Query("batch_id"),
	}
}

func cursorFromQuery(c *fiber.Ctx) (int64, error) {
	raw := c.Query("cursor")
	if raw == "" {
		return 0, nil
	}
	cursor, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || cursor < 0 {
		return 0, domain.Invalid("cursor", "debe ser un entero no negativo")
	}
	return cursor, nil
}
