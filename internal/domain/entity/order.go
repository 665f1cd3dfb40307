package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusFailed    = "failed"
)

// Order cabecera de una orden de venta.
type Order struct {
	ID        string // UUID
	Status    string
	Total     decimal.Decimal
	UserID    string
	Items     []OrderItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem línea de una orden.
type OrderItem struct {
	OrderID   string
	ProductID int64
	Quantity  int64
	UnitPrice decimal.Decimal
}

// Subtotal devuelve Quantity * UnitPrice.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}
