package repository

import (
	"context"

	"github.com/khoaugment/pos-api/internal/domain/entity"
)

// OrderRepository persiste cabecera y líneas de órdenes.
type OrderRepository interface {
	// Create guarda la cabecera y sus líneas en una sola operación.
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	UpdateStatus(ctx context.Context, id, status string) error
}
