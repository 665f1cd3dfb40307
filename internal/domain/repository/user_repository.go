package repository

import (
	"context"

	"github.com/khoaugment/pos-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
// Las búsquedas devuelven (nil, nil) si no hay coincidencia.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context, limit, offset int) ([]*entity.User, error)
	UpdateRole(ctx context.Context, id, role string) error
}
