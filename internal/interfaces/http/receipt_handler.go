package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

// ReceiptHandler maneja las notas de recepción (GRN).
type ReceiptHandler struct {
	uc *inventory.ReceiptUseCase
}

// NewReceiptHandler construye el handler.
func NewReceiptHandler(uc *inventory.ReceiptUseCase) *ReceiptHandler {
	return &ReceiptHandler{uc: uc}
}

// Confirm godoc
// @Summary      Confirmar recepción de mercancía
// @Description  Crea y confirma la GRN en una sola llamada. Repetir con el mismo number devuelve la GRN existente.
// @Tags         receipts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string              false  "Alternativa a number"
// @Param        body             body    dto.ReceiptRequest  true   "warehouse_id y líneas"
// @Success      201  {object}  dto.ReceiptResponse
// @Failure      400  {object}  dto.ValidationErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts [post]
func (h *ReceiptHandler) Confirm(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	in.Number = idempotencyKey(c, in.Number)
	grn, err := h.uc.Confirm(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toReceiptResponse(grn))
}

// SaveDraft godoc
// @Summary      Guardar GRN en borrador
// @Tags         receipts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiptRequest  true  "GRN"
// @Success      201  {object}  dto.ReceiptResponse
// @Failure      400  {object}  dto.ValidationErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts/drafts [post]
func (h *ReceiptHandler) SaveDraft(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	in.Number = idempotencyKey(c, in.Number)
	grn, err := h.uc.SaveDraft(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toReceiptResponse(grn))
}

// ConfirmDraft godoc
// @Summary      Confirmar GRN en borrador
// @Tags         receipts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la GRN"
// @Success      200  {object}  dto.ReceiptResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts/{id}/confirm [post]
func (h *ReceiptHandler) ConfirmDraft(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	grn, err := h.uc.ConfirmDraft(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toReceiptResponse(grn))
}

// Cancel godoc
// @Summary      Anular GRN
// @Description  Publica movimientos de reverso; falla con 409 si el stock recibido ya se consumió.
// @Tags         receipts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true   "ID de la GRN"
// @Param        body  body  dto.CancelRequest  false  "Motivo"
// @Success      200  {object}  dto.ReceiptResponse
// @Failure      409  {object}  dto.InsufficientStockResponse
// @Router       /api/inventory/receipts/{id}/cancel [post]
func (h *ReceiptHandler) Cancel(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CancelRequest
	_ = c.BodyParser(&in)
	grn, err := h.uc.Cancel(c.UserContext(), actor, c.Params("id"), in.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toReceiptResponse(grn))
}

// Get godoc
// @Summary      Obtener GRN
// @Tags         receipts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la GRN"
// @Success      200  {object}  dto.ReceiptResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts/{id} [get]
func (h *ReceiptHandler) Get(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	grn, err := h.uc.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toReceiptResponse(grn))
}
