package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/khoaugment/pos-api/internal/domain"
	"github.com/khoaugment/pos-api/internal/domain/entity"
	"github.com/khoaugment/pos-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo productos en memoria. Con tx != nil las escrituras de stock y costo quedan pendientes.
type ProductRepo struct {
	s  *Store
	tx *txState
}

// NewProductRepository construye el repositorio fuera de transacción.
func NewProductRepository(s *Store) *ProductRepo {
	return &ProductRepo{s: s}
}

func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	if product.MinStock < 0 {
		return fmt.Errorf("min_stock %d: %w", product.MinStock, domain.ErrInvalidInput)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.SKU == product.SKU {
			return domain.ErrDuplicate
		}
	}
	if product.ID == 0 {
		r.s.productSeq++
		product.ID = r.s.productSeq
	} else if _, exists := r.s.products[product.ID]; exists {
		return domain.ErrDuplicate
	} else if product.ID > r.s.productSeq {
		r.s.productSeq = product.ID
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	r.s.products[product.ID] = copyProduct(product)
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id int64) (*entity.Product, error) {
	r.s.mu.RLock()
	p, ok := r.s.products[id]
	var cp *entity.Product
	if ok {
		cp = copyProduct(p)
	}
	r.s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if r.tx != nil {
		if st, ok := r.tx.stock[id]; ok {
			cp.Stock = st
		}
		if c, ok := r.tx.cost[id]; ok {
			cp.CostPrice = c
		}
	}
	return cp, nil
}

func (r *ProductRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.products {
		if p.SKU == sku {
			return copyProduct(p), nil
		}
	}
	return nil, nil
}

func (r *ProductRepo) Update(_ context.Context, product *entity.Product) error {
	if product.MinStock < 0 {
		return fmt.Errorf("min_stock %d: %w", product.MinStock, domain.ErrInvalidInput)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[product.ID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, other := range r.s.products {
		if other.ID != product.ID && other.SKU == product.SKU {
			return domain.ErrDuplicate
		}
	}
	p.SKU = product.SKU
	p.Name = product.Name
	p.Description = product.Description
	p.Price = product.Price
	p.MinStock = product.MinStock
	p.CategoryID = copyProduct(product).CategoryID
	p.Active = product.Active
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *ProductRepo) Deactivate(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Active = false
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *ProductRepo) List(_ context.Context, f repository.ProductFilter) ([]*entity.Product, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	search := strings.ToLower(f.Search)
	var all []*entity.Product
	for _, p := range r.s.products {
		if !f.IncludeInactive && !p.Active {
			continue
		}
		if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) && !strings.Contains(strings.ToLower(p.SKU), search) {
			continue
		}
		all = append(all, copyProduct(p))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	return paginate(all, f.Limit, f.Offset), total, nil
}

func (r *ProductRepo) CompareAndSwapStock(_ context.Context, id, expected, newStock int64) error {
	if r.tx == nil {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
		p, ok := r.s.products[id]
		if !ok {
			return fmt.Errorf("cas stock producto %d: %w", id, domain.ErrNotFound)
		}
		if p.Stock != expected {
			return domain.ErrStaleStock
		}
		p.Stock = newStock
		p.UpdatedAt = time.Now().UTC()
		return nil
	}

	current, pending := r.tx.stock[id]
	if !pending {
		r.s.mu.RLock()
		p, ok := r.s.products[id]
		if ok {
			current = p.Stock
		}
		r.s.mu.RUnlock()
		if !ok {
			return fmt.Errorf("cas stock producto %d: %w", id, domain.ErrNotFound)
		}
		if current == expected {
			r.tx.base[id] = current
		}
	}
	if current != expected {
		return domain.ErrStaleStock
	}
	r.tx.stock[id] = newStock
	return nil
}

func (r *ProductRepo) UpdateCost(_ context.Context, id int64, cost decimal.Decimal) error {
	if r.tx != nil {
		r.tx.cost[id] = cost
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.CostPrice = cost
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
