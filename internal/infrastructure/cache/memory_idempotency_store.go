package cache

import (
	"context"
	"sync"
	"time"

	"github.com/khoaugment/pos-api/internal/application/ports"
)

var _ ports.IdempotencyStore = (*MemoryIdempotencyStore)(nil)

// sweepInterval cada cuánto Reserve purga las entradas vencidas.
const sweepInterval = time.Minute

type memoryEntry struct {
	resp      *ports.StoredResponse // nil = reservada, sin respuesta
	expiresAt time.Time
}

// MemoryIdempotencyStore almacén en proceso para una sola instancia (desarrollo, pruebas).
type MemoryIdempotencyStore struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	now       func() time.Time
	nextSweep time.Time
}

// NewMemoryIdempotencyStore construye un almacén vacío.
func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryIdempotencyStore) Reserve(_ context.Context, key string, ttl time.Duration) (*ports.StoredResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if !now.Before(s.nextSweep) {
		s.sweep(now)
	}
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		if e.resp == nil {
			return nil, ports.ErrIdempotencyInFlight
		}
		cp := *e.resp
		return &cp, nil
	}
	s.entries[key] = memoryEntry{expiresAt: now.Add(ttl)}
	return nil, nil
}

func (s *MemoryIdempotencyStore) Complete(_ context.Context, key string, resp ports.StoredResponse, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp.Body = append([]byte(nil), resp.Body...)
	s.entries[key] = memoryEntry{resp: &resp, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && e.resp == nil {
		delete(s.entries, key)
	}
	return nil
}

// sweep elimina las entradas vencidas. Requiere s.mu tomado.
func (s *MemoryIdempotencyStore) sweep(now time.Time) {
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.nextSweep = now.Add(sweepInterval)
}
