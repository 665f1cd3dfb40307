package memory

import (
	"context"
	"sort"
	"time"

	"github.com/khoaugment/pos-api/internal/domain/entity"
	"github.com/khoaugment/pos-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo libro de movimientos en memoria.
type StockMovementRepo struct {
	s  *Store
	tx *txState
}

// NewStockMovementRepository construye el repositorio fuera de transacción.
func NewStockMovementRepository(s *Store) *StockMovementRepo {
	return &StockMovementRepo{s: s}
}

func (r *StockMovementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	m.ID = r.s.movementSeq.Add(1)
	m.CreatedAt = time.Now().UTC()
	if r.tx != nil {
		r.tx.movements = append(r.tx.movements, copyMovement(m))
		return nil
	}
	r.s.mu.Lock()
	r.s.movements = append(r.s.movements, copyMovement(m))
	r.s.mu.Unlock()
	return nil
}

func (r *StockMovementRepo) ListByProduct(_ context.Context, productID int64, limit, offset int) ([]*entity.StockMovement, error) {
	list := r.byProduct(productID)
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return paginate(list, limit, offset), nil
}

func (r *StockMovementRepo) CountByProduct(_ context.Context, productID int64) (int, error) {
	return len(r.byProduct(productID)), nil
}

func (r *StockMovementRepo) ListChain(_ context.Context, productID int64) ([]*entity.StockMovement, error) {
	list := r.byProduct(productID)
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *StockMovementRepo) byProduct(productID int64) []*entity.StockMovement {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.ProductID != productID {
			continue
		}
		cp := copyMovement(m)
		if u, ok := r.s.users[m.UserID]; ok {
			cp.UserName = u.Name
		}
		out = append(out, cp)
	}
	return out
}
