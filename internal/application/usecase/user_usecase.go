package usecase

import (
	"context"

	"github.com/khoaugment/pos-api/internal/application/dto"
	"github.com/khoaugment/pos-api/internal/domain"
	"github.com/khoaugment/pos-api/internal/domain/entity"
	"github.com/khoaugment/pos-api/internal/domain/repository"
)

// UserUseCase aplica reglas de negocio para usuarios.
type UserUseCase struct {
	repo repository.UserRepository
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository) *UserUseCase {
	return &UserUseCase{repo: repo}
}

// GetByID obtiene un usuario por ID. Devuelve (nil, nil) si no existe.
func (uc *UserUseCase) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return entityToUserResponse(user), nil
}

// List lista usuarios con paginación.
func (uc *UserUseCase) List(ctx context.Context, page dto.PageRequest) ([]dto.UserResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		out = append(out, *entityToUserResponse(u))
	}
	return out, nil
}

// UpdateRole cambia el rol de un usuario.
func (uc *UserUseCase) UpdateRole(ctx context.Context, id, role string) (*dto.UserResponse, error) {
	if !entity.IsValidRole(role) {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.repo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, id)
}

func entityToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
