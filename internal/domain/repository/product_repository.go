package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/khoaugment/pos-api/internal/domain/entity"
)

// ProductFilter filtros de listado del catálogo.
type ProductFilter struct {
	CategoryID      *int64
	Search          string // coincide con nombre o SKU
	IncludeInactive bool
	Limit           int
	Offset          int
}

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID devuelve (nil, nil) si el producto no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	// Update modifica datos de catálogo; nunca toca stock ni cost_price.
	Update(ctx context.Context, product *entity.Product) error
	Deactivate(ctx context.Context, id int64) error
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, int, error)
	// CompareAndSwapStock fija stock = newStock solo si el valor actual es expected.
	// Devuelve domain.ErrStaleStock si otro escritor lo cambió.
	CompareAndSwapStock(ctx context.Context, id, expected, newStock int64) error
	UpdateCost(ctx context.Context, id int64, cost decimal.Decimal) error
}
