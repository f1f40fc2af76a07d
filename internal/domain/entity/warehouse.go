package entity

import "time"

// Warehouse bodega del catálogo externo. Solo las bodegas activas aceptan movimientos.
type Warehouse struct {
	ID        string
	CompanyID string
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Bin ubicación dentro de una bodega.
type Bin struct {
	ID          string
	WarehouseID string
	Code        string
}
