package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInvalidMovement   = errors.New("movimiento inválido")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInvalidState      = errors.New("transición de estado inválida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrStorage           = errors.New("almacenamiento no disponible")
)

// ValidationError detalla qué línea/campo falló la validación. Es un ErrInvalidInput.
type ValidationError struct {
	Line   int // -1 = cabecera
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Line < 0 {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("línea %d: %s: %s", e.Line, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// Invalid construye un ValidationError de cabecera.
func Invalid(field, reason string) error {
	return &ValidationError{Line: -1, Field: field, Reason: reason}
}

// InvalidLine construye un ValidationError para la línea indicada.
func InvalidLine(line int, field, reason string) error {
	return &ValidationError{Line: line, Field: field, Reason: reason}
}

// StockShortfall faltante de una línea: disponible vs solicitado en una llave.
type StockShortfall struct {
	Line        int             `json:"line"`
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	BatchID     string          `json:"batch_id,omitempty"`
	Available   decimal.Decimal `json:"available"`
	Requested   decimal.Decimal `json:"requested"`
}

// InsufficientStockError rechazo de negocio con el faltante de cada línea. Es un ErrInsufficientStock.
type InsufficientStockError struct {
	Lines []StockShortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		parts = append(parts, fmt.Sprintf("línea %d (%s@%s): disponible %s, solicitado %s",
			l.Line, l.ProductID, l.WarehouseID, l.Available, l.Requested))
	}
	return ErrInsufficientStock.Error() + ": " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }
