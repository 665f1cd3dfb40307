package usecase

import (
	"context"
	"time"

	"github.com/khoaugment/pos-api/internal/application/dto"
	"github.com/khoaugment/pos-api/internal/domain"
	"github.com/khoaugment/pos-api/internal/domain/entity"
	"github.com/khoaugment/pos-api/internal/domain/repository"
)

// ProductUseCase casos de uso CRUD para productos. Stock y costo promedio se manejan vía movimientos.
type ProductUseCase struct {
	repo         repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, categoryRepo repository.CategoryRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo, categoryRepo: categoryRepo}
}

// Create crea un nuevo producto con su stock inicial de catálogo.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	existing, err := uc.repo.GetBySKU(ctx, in.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	if in.Price.IsNegative() || in.CostPrice.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.ensureCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	now := time.Now()
	product := &entity.Product{
		SKU:         in.SKU,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		CostPrice:   in.CostPrice,
		Stock:       in.InitialStock,
		MinStock:    in.MinStock,
		CategoryID:  in.CategoryID,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID. Devuelve (nil, nil) si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	return toProductResponse(product), nil
}

// Update actualiza datos de catálogo. No permite modificar stock ni costo.
func (uc *ProductUseCase) Update(ctx context.Context, id int64, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	if in.SKU != nil && *in.SKU != product.SKU {
		other, err := uc.repo.GetBySKU(ctx, *in.SKU)
		if err != nil {
			return nil, err
		}
		if other != nil {
			return nil, domain.ErrDuplicate
		}
		product.SKU = *in.SKU
	}
	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		product.Price = *in.Price
	}
	if in.MinStock != nil {
		product.MinStock = *in.MinStock
	}
	if in.CategoryID != nil {
		if err := uc.ensureCategory(ctx, in.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = in.CategoryID
	}
	if in.Active != nil {
		product.Active = *in.Active
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Deactivate baja lógica: el producto deja de aparecer en el catálogo pero conserva su historial.
func (uc *ProductUseCase) Deactivate(ctx context.Context, id int64) error {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product == nil {
		return &domain.ProductNotFoundError{ProductID: id}
	}
	return uc.repo.Deactivate(ctx, id)
}

// List lista productos con filtros y paginación.
func (uc *ProductUseCase) List(ctx context.Context, q dto.ProductListQuery) (*dto.ProductListResponse, error) {
	q.DefaultPage()
	filter := repository.ProductFilter{
		Search:          q.Search,
		IncludeInactive: q.IncludeInactive,
		Limit:           q.Limit,
		Offset:          q.Offset,
	}
	if q.CategoryID > 0 {
		filter.CategoryID = &q.CategoryID
	}
	list, total, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset, Total: total},
	}, nil
}

func (uc *ProductUseCase) ensureCategory(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	cat, err := uc.categoryRepo.GetByID(ctx, *id)
	if err != nil {
		return err
	}
	if cat == nil {
		return domain.ErrNotFound
	}
	return nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		CostPrice:   p.CostPrice,
		Stock:       p.Stock,
		MinStock:    p.MinStock,
		LowStock:    p.IsLowStock(),
		CategoryID:  p.CategoryID,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
