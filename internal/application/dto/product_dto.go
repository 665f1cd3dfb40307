package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. InitialStock es el valor inicial del catálogo;
// después el stock solo cambia por movimientos.
type CreateProductRequest struct {
	SKU          string          `json:"sku" validate:"required,min=1,max=100"`
	Name         string          `json:"name" validate:"required,min=1,max=200"`
	Description  string          `json:"description" validate:"max=2000"`
	Price        decimal.Decimal `json:"price"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	InitialStock int64           `json:"initial_stock" validate:"min=0"`
	MinStock     int64           `json:"min_stock" validate:"min=0"`
	CategoryID   *int64          `json:"category_id,omitempty" validate:"omitempty,gt=0"`
}

// UpdateProductRequest entrada para actualizar un producto (sin stock ni costo).
type UpdateProductRequest struct {
	SKU         *string          `json:"sku" validate:"omitempty,min=1,max=100"`
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price"`
	MinStock    *int64           `json:"min_stock" validate:"omitempty,min=0"`
	CategoryID  *int64           `json:"category_id" validate:"omitempty,gt=0"`
	Active      *bool            `json:"active"`
}

// ProductListQuery filtros de GET /products.
type ProductListQuery struct {
	PageRequest
	CategoryID      int64  `query:"category_id" validate:"omitempty,gt=0"`
	Search          string `query:"q" validate:"omitempty,max=100"`
	IncludeInactive bool   `query:"include_inactive"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          int64           `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	Stock       int64           `json:"stock"`
	MinStock    int64           `json:"min_stock"`
	LowStock    bool            `json:"low_stock"`
	CategoryID  *int64          `json:"category_id,omitempty"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// CreateCategoryRequest entrada para crear una categoría.
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// CategoryResponse salida de una categoría.
type CategoryResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
