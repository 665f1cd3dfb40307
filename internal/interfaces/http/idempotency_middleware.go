package http

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/khoaugment/pos-api/internal/application/dto"
	"github.com/khoaugment/pos-api/internal/application/ports"
)

// Cabeceras de idempotencia.
const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"
)

// Idempotency guarda la primera respuesta (< 500) de cada Idempotency-Key y la repite
// ante peticiones con la misma clave durante ttl. Sin cabecera la petición pasa sin cambios.
// La clave se aísla por usuario, método y ruta; reutilizarla con otro cuerpo responde 422.
// Debe ir después de AuthMiddleware.
func Idempotency(store ports.IdempotencyStore, ttl time.Duration, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(HeaderIdempotencyKey)
		if raw == "" || store == nil {
			return c.Next()
		}
		if len(raw) > 128 {
			return badRequest(c, "INVALID_IDEMPOTENCY_KEY", "Idempotency-Key admite hasta 128 caracteres")
		}
		key := GetUserID(c) + ":" + c.Method() + ":" + c.Path() + ":" + raw
		sum := sha256.Sum256(c.Body())
		hash := hex.EncodeToString(sum[:])
		ctx := c.UserContext()

		stored, err := store.Reserve(ctx, key, ttl)
		if err != nil {
			if errors.Is(err, ports.ErrIdempotencyInFlight) {
				return respondError(c, err)
			}
			logger.Error().Err(err).Msg("almacén de idempotencia no disponible")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_UNAVAILABLE", Message: "no se pudo verificar la Idempotency-Key"})
		}
		if stored != nil {
			if stored.RequestHash != "" && stored.RequestHash != hash {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
					Code:    "IDEMPOTENCY_KEY_REUSED",
					Message: "la Idempotency-Key ya se usó con un cuerpo distinto",
				})
			}
			c.Set(HeaderReplayed, "true")
			if stored.ContentType != "" {
				c.Set(fiber.HeaderContentType, stored.ContentType)
			}
			return c.Status(stored.StatusCode).Send(stored.Body)
		}

		if err := c.Next(); err != nil {
			_ = store.Release(ctx, key)
			return err
		}
		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			if err := store.Release(ctx, key); err != nil {
				logger.Warn().Err(err).Msg("no se pudo liberar la Idempotency-Key")
			}
			return nil
		}
		resp := ports.StoredResponse{
			StatusCode:  status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
			RequestHash: hash,
		}
		if err := store.Complete(ctx, key, resp, ttl); err != nil {
			logger.Warn().Err(err).Msg("no se pudo guardar la respuesta idempotente")
		}
		return nil
	}
}
