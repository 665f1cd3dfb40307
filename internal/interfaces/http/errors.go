package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/khoaugment/pos-api/internal/application/dto"
	"github.com/khoaugment/pos-api/internal/application/inventory"
	"github.com/khoaugment/pos-api/internal/application/ports"
	"github.com/khoaugment/pos-api/internal/domain"
)

// classifyError traduce un error de dominio a status HTTP y cuerpo de error.
// Los tipos concretos se evalúan antes que los sentinels que envuelven.
func classifyError(err error) (int, dto.ErrorResponse) {
	var (
		notFound     *domain.ProductNotFoundError
		insufficient *domain.InsufficientStockError
		invalidOp    *domain.InvalidOperationError
		orderErr     *domain.OrderStockError
		storageErr   *domain.StorageError
	)
	switch {
	case errors.As(err, &insufficient):
		return fiber.StatusConflict, dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: insufficient.Error(),
			Details: fiber.Map{"product_id": insufficient.ProductID, "requested": insufficient.Requested, "available": insufficient.Available},
		}
	case errors.As(err, &notFound):
		return fiber.StatusNotFound, dto.ErrorResponse{
			Code: "PRODUCT_NOT_FOUND", Message: notFound.Error(),
			Details: fiber.Map{"product_id": notFound.ProductID},
		}
	case errors.As(err, &invalidOp):
		return fiber.StatusBadRequest, dto.ErrorResponse{
			Code:    "NEGATIVE_STOCK",
			Message: invalidOp.Error(),
			Details: fiber.Map{"product_id": invalidOp.ProductID, "current": invalidOp.Current, "change": invalidOp.Change, "deficit": invalidOp.Deficit},
		}
	case errors.Is(err, domain.ErrConcurrentModification):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "CONCURRENT_MODIFICATION", Message: "el producto fue modificado por otra operación, reintente"}
	case errors.Is(err, ports.ErrIdempotencyInFlight):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "IDEMPOTENCY_IN_FLIGHT", Message: err.Error()}
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "DUPLICATE", Message: "el recurso ya existe"}
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "EMAIL_EXISTS", Message: "el email ya está registrado"}
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"}
	case errors.Is(err, inventory.ErrReportStorageDisabled):
		return fiber.StatusServiceUnavailable, dto.ErrorResponse{Code: "STORAGE_DISABLED", Message: err.Error()}
	case errors.As(err, &orderErr):
		return fiber.StatusInternalServerError, dto.ErrorResponse{
			Code: "ORDER_STOCK_FAILED", Message: "no se pudo aplicar el stock de la orden; no se aplicó ningún cambio",
			Details: fiber.Map{"order_id": orderErr.OrderID},
		}
	case errors.As(err, &storageErr):
		return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "STORAGE_ERROR", Message: "error de almacenamiento"}
	default:
		return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
	}
}

// respondError escribe la respuesta de error; los 5xx se registran con el error original.
func respondError(c *fiber.Ctx, err error) error {
	status, body := classifyError(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error en petición")
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
