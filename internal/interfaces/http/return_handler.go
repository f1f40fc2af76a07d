package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

// ReturnHandler devoluciones de cliente contra ventas confirmadas.
type ReturnHandler struct {
	uc *inventory.ReturnUseCase
}

// NewReturnHandler construye el handler.
func NewReturnHandler(uc *inventory.ReturnUseCase) *ReturnHandler {
	return &ReturnHandler{uc: uc}
}

// Confirm godoc
// @Summary      Registrar devolución de cliente
// @Tags         returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReturnRequest  true  "sale_id y líneas devueltas"
// @Success      201  {object}  dto.ReturnResponse
// @Failure      400  {object}  dto.ValidationErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/returns [post]
func (h *ReturnHandler) Confirm(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ReturnRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	in.Number = idempotencyKey(c, in.Number)
	ret, err := h.uc.Confirm(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toReturnResponse(ret))
}

// Cancel godoc
// @Summary      Anular devolución
// @Tags         returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true   "ID de la devolución"
// @Param        body  body  dto.CancelRequest  false  "Motivo"
// @Success      200  {object}  dto.ReturnResponse
// @Router       /api/inventory/returns/{id}/cancel [post]
func (h *ReturnHandler) Cancel(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CancelRequest
	_ = c.BodyParser(&in)
	ret, err := h.uc.Cancel(c.UserContext(), actor, c.Params("id"), in.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toReturnResponse(ret))
}

// Get godoc
// @Summary      Obtener devolución
// @Tags         returns
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la devolución"
// @Success      200  {object}  dto.ReturnResponse
// @Router       /api/inventory/returns/{id} [get]
func (h *ReturnHandler) Get(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	ret, err := h.uc.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toReturnResponse(ret))
}
