package memory

import (
	"context"
	"sort"
	"time"

	"github.com/khoaugment/pos-api/internal/domain"
	"github.com/khoaugment/pos-api/internal/domain/entity"
	"github.com/khoaugment/pos-api/internal/domain/repository"
)

var (
	_ repository.CategoryRepository    = (*CategoryRepo)(nil)
	_ repository.ActivityLogRepository = (*ActivityLogRepo)(nil)
	_ repository.UserRepository        = (*UserRepo)(nil)
	_ repository.OrderRepository       = (*OrderRepo)(nil)
)

// CategoryRepo categorías en memoria.
type CategoryRepo struct{ s *Store }

// NewCategoryRepository construye el repositorio de categorías.
func NewCategoryRepository(s *Store) *CategoryRepo { return &CategoryRepo{s: s} }

func (r *CategoryRepo) Create(_ context.Context, c *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.categories {
		if other.Name == c.Name {
			return domain.ErrDuplicate
		}
	}
	r.s.categorySeq++
	c.ID = r.s.categorySeq
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	cp := *c
	r.s.categories[c.ID] = &cp
	return nil
}

func (r *CategoryRepo) GetByID(_ context.Context, id int64) (*entity.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *CategoryRepo) List(_ context.Context) ([]*entity.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ActivityLogRepo registro de actividad en memoria.
type ActivityLogRepo struct{ s *Store }

// NewActivityLogRepository construye el repositorio de actividad.
func NewActivityLogRepository(s *Store) *ActivityLogRepo { return &ActivityLogRepo{s: s} }

func (r *ActivityLogRepo) Create(_ context.Context, l *entity.ActivityLog) error {
	if err := r.s.activityLogError(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.logSeq++
	l.ID = r.s.logSeq
	l.CreatedAt = time.Now().UTC()
	cp := *l
	r.s.logs = append(r.s.logs, &cp)
	return nil
}

func (r *ActivityLogRepo) ListByAction(_ context.Context, action string, limit int) ([]*entity.ActivityLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.ActivityLog
	for i := len(r.s.logs) - 1; i >= 0; i-- {
		if r.s.logs[i].Action != action {
			continue
		}
		cp := *r.s.logs[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// UserRepo usuarios en memoria.
type UserRepo struct{ s *Store }

// NewUserRepository construye el repositorio de usuarios.
func NewUserRepository(s *Store) *UserRepo { return &UserRepo{s: s} }

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.users {
		if other.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) List(_ context.Context, limit, offset int) ([]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

func (r *UserRepo) UpdateRole(_ context.Context, id, role string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// SetStatus cambia el estado de un usuario (activación manual y pruebas).
func (r *UserRepo) SetStatus(_ context.Context, id, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Status = status
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// OrderRepo órdenes en memoria.
type OrderRepo struct{ s *Store }

// NewOrderRepository construye el repositorio de órdenes.
func NewOrderRepository(s *Store) *OrderRepo { return &OrderRepo{s: s} }

func (r *OrderRepo) Create(_ context.Context, o *entity.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.orders[o.ID]; exists {
		return domain.ErrDuplicate
	}
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	cp := *o
	cp.Items = append([]entity.OrderItem(nil), o.Items...)
	r.s.orders[o.ID] = &cp
	return nil
}

func (r *OrderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	cp.Items = append([]entity.OrderItem(nil), o.Items...)
	return &cp, nil
}

func (r *OrderRepo) UpdateStatus(_ context.Context, id, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	return nil
}
