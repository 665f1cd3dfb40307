package inventory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductLocker_SerializaPorProducto(t *testing.T) {
	l := NewProductLocker()
	ctx := context.Background()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, 3, 1, 3)
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside.Load())
	assert.Zero(t, l.size(), "las claves se liberan al terminar")
}

func TestProductLocker_CancelacionLiberaLoAdquirido(t *testing.T) {
	l := NewProductLocker()
	unlock, err := l.Lock(context.Background(), 2)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, 1, 2)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// 1 quedó libre aunque 2 siguiera tomado
	u1, err := l.Lock(context.Background(), 1)
	require.NoError(t, err)
	u1()
	unlock()
	assert.Zero(t, l.size())
}
