package entity

import "time"

// DocumentStatus estado de un documento que afecta el ledger.
type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "DRAFT"     // editable, sin efecto en el ledger
	DocumentStatusConfirmed DocumentStatus = "CONFIRMED" // movimientos publicados una sola vez
	DocumentStatusCancelled DocumentStatus = "CANCELLED" // movimientos de reverso publicados
)

// DocumentHeader cabecera común de GRN, ventas, traslados, ajustes y devoluciones.
// Number es la llave de idempotencia que envía el cliente (único por tipo de documento).
type DocumentHeader struct {
	ID           string
	Number       string
	CompanyID    string
	Status       DocumentStatus
	Notes        string
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ConfirmedAt  *time.Time
	CancelledAt  *time.Time
	CancelledBy  string
	CancelReason string
}

// IsDraft indica si el documento aún no tiene efecto en el ledger.
func (h *DocumentHeader) IsDraft() bool { return h.Status == DocumentStatusDraft }

// MarkConfirmed pasa el documento a CONFIRMED.
func (h *DocumentHeader) MarkConfirmed(now time.Time) {
	h.Status = DocumentStatusConfirmed
	h.ConfirmedAt = &now
	h.UpdatedAt = now
}

// MarkCancelled pasa el documento a CANCELLED.
func (h *DocumentHeader) MarkCancelled(now time.Time, by, reason string) {
	h.Status = DocumentStatusCancelled
	h.CancelledAt = &now
	h.CancelledBy = by
	h.CancelReason = reason
	h.UpdatedAt = now
}

// Header acceso a la cabecera desde cualquier documento que la embebe.
func (h *DocumentHeader) Header() *DocumentHeader { return h }
