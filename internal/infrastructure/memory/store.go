// Package memory implementa los puertos de persistencia en memoria.
// Las transacciones son optimistas: se validan contra el estado confirmado al hacer commit,
// igual que el compare-and-swap de PostgreSQL. Se usa en tests y con DB_DRIVER=memory.
package memory

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/khoaugment/pos-api/internal/domain"
	"github.com/khoaugment/pos-api/internal/domain/entity"
)

// Store estado compartido de todos los repositorios en memoria.
type Store struct {
	mu         sync.RWMutex
	products   map[int64]*entity.Product
	categories map[int64]*entity.Category
	movements  []*entity.StockMovement
	logs       []*entity.ActivityLog
	users      map[string]*entity.User
	orders     map[string]*entity.Order

	productSeq  int64
	categorySeq int64
	logSeq      int64
	movementSeq atomic.Int64

	faultMu      sync.Mutex
	commitFaults []error
	logErr       error
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{
		products:   make(map[int64]*entity.Product),
		categories: make(map[int64]*entity.Category),
		users:      make(map[string]*entity.User),
		orders:     make(map[string]*entity.Order),
	}
}

// InjectCommitFaults hace que los próximos commits fallen con los errores dados, en orden.
func (s *Store) InjectCommitFaults(errs ...error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.commitFaults = append(s.commitFaults, errs...)
}

// SetActivityLogError hace fallar toda escritura en activity_logs (nil la restablece).
func (s *Store) SetActivityLogError(err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.logErr = err
}

func (s *Store) takeCommitFault() error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	if len(s.commitFaults) == 0 {
		return nil
	}
	err := s.commitFaults[0]
	s.commitFaults = s.commitFaults[1:]
	return err
}

func (s *Store) activityLogError() error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	return s.logErr
}

// txState escrituras pendientes de una transacción.
type txState struct {
	base      map[int64]int64 // stock confirmado observado en el primer CAS
	stock     map[int64]int64
	cost      map[int64]decimal.Decimal
	movements []*entity.StockMovement
}

func newTxState() *txState {
	return &txState{
		base:  make(map[int64]int64),
		stock: make(map[int64]int64),
		cost:  make(map[int64]decimal.Decimal),
	}
}

// commit valida que ningún producto tocado cambió desde el CAS y aplica las escrituras.
func (s *Store) commit(tx *txState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, base := range tx.base {
		p, ok := s.products[id]
		if !ok || p.Stock != base {
			return domain.ErrStaleStock
		}
	}
	now := time.Now().UTC()
	for id, st := range tx.stock {
		p := s.products[id]
		p.Stock = st
		p.UpdatedAt = now
	}
	for id, c := range tx.cost {
		if p, ok := s.products[id]; ok {
			p.CostPrice = c
			p.UpdatedAt = now
		}
	}
	s.movements = append(s.movements, tx.movements...)
	return nil
}

func copyProduct(p *entity.Product) *entity.Product {
	cp := *p
	if p.CategoryID != nil {
		id := *p.CategoryID
		cp.CategoryID = &id
	}
	return &cp
}

func copyMovement(m *entity.StockMovement) *entity.StockMovement {
	cp := *m
	return &cp
}
