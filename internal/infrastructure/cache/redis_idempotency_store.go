// Package cache implementa el almacén de respuestas para Idempotency-Key.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/khoaugment/pos-api/internal/application/ports"
	"github.com/khoaugment/pos-api/pkg/config"
)

var _ ports.IdempotencyStore = (*RedisIdempotencyStore)(nil)

const (
	defaultKeyPrefix = "pos:idempotency:"
	pendingMarker    = "pending"
)

// releaseScript borra la clave solo si sigue en estado pendiente.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisIdempotencyStore guarda reservas y respuestas en Redis; apto para varias instancias del API.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisIdempotencyStore conecta con Redis y verifica la conexión.
func NewRedisIdempotencyStore(ctx context.Context, cfg config.RedisConfig) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("conectar a Redis: %w", err)
	}
	return NewRedisIdempotencyStoreWithClient(client, ""), nil
}

// NewRedisIdempotencyStoreWithClient usa un cliente existente (pruebas o cliente compartido).
func NewRedisIdempotencyStoreWithClient(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisIdempotencyStore{client: client, keyPrefix: keyPrefix}
}

// Reserve usa SETNX para tomar la clave de forma atómica.
func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (*ports.StoredResponse, error) {
	k := s.keyPrefix + key
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, k, pendingMarker, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("reservar idempotency key: %w", err)
		}
		if ok {
			return nil, nil
		}
		val, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			// expiró entre SETNX y GET
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("leer idempotency key: %w", err)
		}
		if val == pendingMarker {
			return nil, ports.ErrIdempotencyInFlight
		}
		var resp ports.StoredResponse
		if err := json.Unmarshal([]byte(val), &resp); err != nil {
			return nil, fmt.Errorf("decodificar respuesta guardada: %w", err)
		}
		return &resp, nil
	}
	return nil, ports.ErrIdempotencyInFlight
}

// Complete reemplaza la reserva por la respuesta serializada.
func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string, resp ports.StoredResponse, ttl time.Duration) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("serializar respuesta: %w", err)
	}
	if err := s.client.Set(ctx, s.keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("guardar respuesta idempotente: %w", err)
	}
	return nil
}

// Release elimina la reserva si no llegó a completarse.
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{s.keyPrefix + key}, pendingMarker).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("liberar idempotency key: %w", err)
	}
	return nil
}

// Close cierra el cliente Redis.
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}
