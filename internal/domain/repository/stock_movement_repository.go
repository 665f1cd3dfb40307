package repository

import (
	"context"

	"github.com/khoaugment/pos-api/internal/domain/entity"
)

// StockMovementRepository puerto del libro de movimientos (append-only: sin Update ni Delete).
type StockMovementRepository interface {
	// Create inserta el movimiento y asigna ID y CreatedAt.
	Create(ctx context.Context, movement *entity.StockMovement) error
	// ListByProduct devuelve la página más reciente primero (id DESC) con UserName resuelto.
	ListByProduct(ctx context.Context, productID int64, limit, offset int) ([]*entity.StockMovement, error)
	CountByProduct(ctx context.Context, productID int64) (int, error)
	// ListChain devuelve todos los movimientos del producto ordenados por id ascendente.
	ListChain(ctx context.Context, productID int64) ([]*entity.StockMovement, error)
}
