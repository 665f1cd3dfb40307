package ports

import (
	"context"
	"errors"
	"time"
)

// ErrIdempotencyInFlight otra petición con la misma clave todavía se está procesando.
var ErrIdempotencyInFlight = errors.New("petición con la misma Idempotency-Key en curso")

// StoredResponse respuesta guardada para repetir ante la misma Idempotency-Key.
// RequestHash identifica el cuerpo de la petición original.
type StoredResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	RequestHash string `json:"request_hash,omitempty"`
}

// IdempotencyStore guarda la primera respuesta de cada clave durante ttl.
type IdempotencyStore interface {
	// Reserve marca la clave como en curso. Devuelve (resp, nil) si ya hay respuesta guardada,
	// (nil, nil) si la reserva fue exitosa y ErrIdempotencyInFlight si otra petición la tiene.
	Reserve(ctx context.Context, key string, ttl time.Duration) (*StoredResponse, error)
	// Complete guarda la respuesta final de la clave.
	Complete(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error
	// Release libera una reserva sin respuesta (la petición falló antes de responder).
	Release(ctx context.Context, key string) error
}
