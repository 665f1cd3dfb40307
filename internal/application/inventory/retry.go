package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/khoaugment/pos-api/internal/domain"
)

// RetryConfig reintentos acotados de la unidad atómica completa.
type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig valores por defecto usados cuando la configuración no define otros.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     5,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     250 * time.Millisecond,
	}
}

func (c RetryConfig) policy(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	if c.InitialInterval > 0 {
		b.InitialInterval = c.InitialInterval
	}
	if c.MaxInterval > 0 {
		b.MaxInterval = c.MaxInterval
	}
	b.MaxElapsedTime = 0
	retries := c.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// retryAtomic reintenta fn mientras falle con un conflicto de stock o un error de
// almacenamiento transitorio. Los errores de política son permanentes.
func (w *LedgerWriter) retryAtomic(ctx context.Context, op string, fn func() error) error {
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !domain.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		if errors.Is(err, domain.ErrStaleStock) {
			w.metrics.conflicts.Add(ctx, 1)
		}
		w.logger.Warn().Err(err).Str("op", op).Int("intento", attempt).Msg("escritura de inventario en conflicto")
		return err
	}, w.retry.policy(ctx))
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrStaleStock) {
		return fmt.Errorf("%w: %s agotó %d intentos", domain.ErrConcurrentModification, op, attempt)
	}
	return err
}
