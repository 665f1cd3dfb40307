package inventory

import (
	"context"
	"slices"
	"sync"
)

// ProductLocker serializa, dentro del proceso, las escrituras de stock por producto.
// Las operaciones multi-producto adquieren los ids en orden ascendente para evitar deadlocks.
type ProductLocker struct {
	mu    sync.Mutex
	locks map[int64]*productLock
}

type productLock struct {
	ch   chan struct{}
	refs int
}

// NewProductLocker construye un locker vacío.
func NewProductLocker() *ProductLocker {
	return &ProductLocker{locks: make(map[int64]*productLock)}
}

// Lock bloquea los productos indicados y devuelve la función que los libera.
// Si ctx se cancela mientras espera, libera lo adquirido y devuelve ctx.Err().
func (l *ProductLocker) Lock(ctx context.Context, ids ...int64) (func(), error) {
	keys := slices.Clone(ids)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	acquired := make([]int64, 0, len(keys))
	releaseAll := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			l.release(acquired[i])
		}
	}
	for _, id := range keys {
		pl := l.ref(id)
		select {
		case pl.ch <- struct{}{}:
			acquired = append(acquired, id)
		case <-ctx.Done():
			l.unref(id)
			releaseAll()
			return nil, ctx.Err()
		}
	}
	var once sync.Once
	return func() { once.Do(releaseAll) }, nil
}

func (l *ProductLocker) ref(id int64) *productLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	pl, ok := l.locks[id]
	if !ok {
		pl = &productLock{ch: make(chan struct{}, 1)}
		l.locks[id] = pl
	}
	pl.refs++
	return pl
}

func (l *ProductLocker) unref(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pl := l.locks[id]
	pl.refs--
	if pl.refs == 0 {
		delete(l.locks, id)
	}
}

func (l *ProductLocker) release(id int64) {
	l.mu.Lock()
	pl := l.locks[id]
	l.mu.Unlock()
	<-pl.ch
	l.unref(id)
}

// size devuelve la cantidad de claves vivas (tests).
func (l *ProductLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
