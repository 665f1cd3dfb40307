package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest body para POST /api/orders.
type CreateOrderRequest struct {
	Items []StockLineRequest `json:"items" validate:"required,min=1,max=200,dive"`
}

// OrderItemResponse línea de la orden.
type OrderItemResponse struct {
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderResponse orden confirmada.
type OrderResponse struct {
	ID        string              `json:"id"`
	Status    string              `json:"status"`
	Total     decimal.Decimal     `json:"total"`
	UserID    string              `json:"user_id"`
	Items     []OrderItemResponse `json:"items"`
	Movements []MovementResponse  `json:"movements,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}
