package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

// AdjustmentHandler ajustes administrativos de stock.
type AdjustmentHandler struct {
	uc *inventory.AdjustmentUseCase
}

// NewAdjustmentHandler construye el handler.
func NewAdjustmentHandler(uc *inventory.AdjustmentUseCase) *AdjustmentHandler {
	return &AdjustmentHandler{uc: uc}
}

// Apply godoc
// @Summary      Ajustar stock
// @Description  quantity con signo; reason_code obligatorio. override=true permite saldo negativo (solo admin).
// @Tags         adjustments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustmentRequest  true  "Llave, cantidad y motivo"
// @Success      201  {object}  dto.AdjustmentResponse
// @Failure      400  {object}  dto.ValidationErrorResponse
// @Failure      409  {object}  dto.InsufficientStockResponse
// @Router       /api/inventory/adjustments [post]
func (h *AdjustmentHandler) Apply(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.Override && GetRole(c) != RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "override requiere rol admin"})
	}
	in.Number = idempotencyKey(c, in.Number)
	adj, err := h.uc.Apply(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toAdjustmentResponse(adj))
}

// Cancel godoc
// @Summary      Anular ajuste
// @Tags         adjustments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true   "ID del ajuste"
// @Param        body  body  dto.CancelRequest  false  "Motivo"
// @Success      200  {object}  dto.AdjustmentResponse
// @Router       /api/inventory/adjustments/{id}/cancel [post]
func (h *AdjustmentHandler) Cancel(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CancelRequest
	_ = c.BodyParser(&in)
	adj, err := h.uc.Cancel(c.UserContext(), actor, c.Params("id"), in.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toAdjustmentResponse(adj))
}

// Get godoc
// @Summary      Obtener ajuste
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Router       /api/inventory/adjustments/{id} [get]
func (h *AdjustmentHandler) Get(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	adj, err := h.uc.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toAdjustmentResponse(adj))
}
