package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo.
// Stock solo se modifica a través del libro de movimientos; CostPrice es promedio ponderado.
type Product struct {
	ID          int64
	SKU         string // código único
	Name        string
	Description string
	Price       decimal.Decimal // precio de venta
	CostPrice   decimal.Decimal // costo promedio ponderado
	Stock       int64
	MinStock    int64  // nivel de reorden
	CategoryID  *int64 // nil si no tiene categoría
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsLowStock indica si el stock actual está en o por debajo del nivel de reorden.
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}
