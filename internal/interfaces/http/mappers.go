package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// idempotencyKey usa el number del body; si va vacío, el header Idempotency-Key.
func idempotencyKey(c *fiber.Ctx, number string) string {
	if number != "" {
		return number
	}
	return c.Get("Idempotency-Key")
}

func toDocumentResponse(h *entity.DocumentHeader) dto.DocumentResponse {
	return dto.DocumentResponse{
		ID:           h.ID,
		Number:       h.Number,
		Status:       string(h.Status),
		Notes:        h.Notes,
		CreatedBy:    h.CreatedBy,
		CreatedAt:    h.CreatedAt,
		ConfirmedAt:  h.ConfirmedAt,
		CancelledAt:  h.CancelledAt,
		CancelledBy:  h.CancelledBy,
		CancelReason: h.CancelReason,
	}
}

func toReceiptResponse(g *entity.GoodsReceipt) dto.ReceiptResponse {
	out := dto.ReceiptResponse{
		DocumentResponse: toDocumentResponse(&g.DocumentHeader),
		WarehouseID:      g.WarehouseID,
		SupplierRef:      g.SupplierRef,
		Lines:            make([]dto.ReceiptLineResponse, 0, len(g.Lines)),
	}
	for _, l := range g.Lines {
		out.Lines = append(out.Lines, dto.ReceiptLineResponse{
			ProductID:   l.ProductID,
			BinID:       l.BinID,
			Quantity:    l.Quantity,
			UnitCost:    l.UnitCost,
			BatchNumber: l.BatchNumber,
			BatchID:     l.BatchID,
			MovementID:  l.MovementID,
		})
	}
	return out
}

func toSaleResponse(s *entity.Sale) dto.SaleResponse {
	out := dto.SaleResponse{
		DocumentResponse: toDocumentResponse(&s.DocumentHeader),
		WarehouseID:      s.WarehouseID,
		CustomerRef:      s.CustomerRef,
		Lines:            make([]dto.SaleLineResponse, 0, len(s.Lines)),
	}
	for _, l := range s.Lines {
		out.Lines = append(out.Lines, dto.SaleLineResponse{
			ID:         l.ID,
			ProductID:  l.ProductID,
			BatchID:    l.BatchID,
			BinID:      l.BinID,
			Quantity:   l.Quantity,
			MovementID: l.MovementID,
		})
	}
	return out
}

func toTransferResponse(t *entity.Transfer) dto.TransferResponse {
	out := dto.TransferResponse{
		DocumentResponse: toDocumentResponse(&t.DocumentHeader),
		FromWarehouseID:  t.FromWarehouseID,
		ToWarehouseID:    t.ToWarehouseID,
		Lines:            make([]dto.TransferLineResponse, 0, len(t.Lines)),
	}
	for _, l := range t.Lines {
		out.Lines = append(out.Lines, dto.TransferLineResponse{
			ProductID:     l.ProductID,
			BatchID:       l.BatchID,
			Quantity:      l.Quantity,
			OutMovementID: l.OutMovementID,
			InMovementID:  l.InMovementID,
		})
	}
	return out
}

func toAdjustmentResponse(a *entity.Adjustment) dto.AdjustmentResponse {
	return dto.AdjustmentResponse{
		DocumentResponse: toDocumentResponse(&a.DocumentHeader),
		ProductID:        a.ProductID,
		WarehouseID:      a.WarehouseID,
		BatchID:          a.BatchID,
		BinID:            a.BinID,
		Quantity:         a.Quantity,
		UnitCost:         a.UnitCost,
		ReasonCode:       a.ReasonCode,
		Override:         a.Override,
		MovementID:       a.MovementID,
	}
}

func toReturnResponse(r *entity.SaleReturn) dto.ReturnResponse {
	out := dto.ReturnResponse{
		DocumentResponse: toDocumentResponse(&r.DocumentHeader),
		SaleID:           r.SaleID,
		WarehouseID:      r.WarehouseID,
		Reason:           r.Reason,
		Lines:            make([]dto.ReturnLineResponse, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		out.Lines = append(out.Lines, dto.ReturnLineResponse{
			SaleLineID: l.SaleLineID,
			ProductID:  l.ProductID,
			BatchID:    l.BatchID,
			Quantity:   l.Quantity,
			MovementID: l.MovementID,
		})
	}
	return out
}

func toMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID,
		Seq:           m.Seq,
		ProductID:     m.ProductID,
		WarehouseID:   m.WarehouseID,
		BinID:         m.BinID,
		BatchID:       m.BatchID,
		Quantity:      m.Quantity,
		Type:          string(m.Type),
		ReferenceType: string(m.Reference.DocumentType),
		ReferenceID:   m.Reference.DocumentID,
		UnitCost:      m.UnitCost,
		Notes:         m.Notes,
		Override:      m.Override,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}

func toMovementPage(p *inventory.HistoryPage) dto.MovementPageResponse {
	out := dto.MovementPageResponse{
		Items:      make([]dto.MovementResponse, 0, len(p.Items)),
		NextCursor: p.NextCursor,
	}
	for _, m := range p.Items {
		out.Items = append(out.Items, toMovementResponse(m))
	}
	return out
}

func toReconcileResponse(r inventory.ReconcileResult) dto.ReconcileResponse {
	return dto.ReconcileResponse{
		ProductID:   r.Key.ProductID,
		WarehouseID: r.Key.WarehouseID,
		BatchID:     r.Key.BatchID,
		Previous:    r.Previous,
		Recomputed:  r.Recomputed,
		Drift:       r.Drift,
	}
}
