package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product producto del catálogo (lo administra el servicio de catálogo; aquí solo se lee).
type Product struct {
	ID          string
	CompanyID   string
	SKU         string
	Name        string
	Cost        decimal.Decimal // costo promedio ponderado, referencia para valorizar salidas
	UnitMeasure string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
