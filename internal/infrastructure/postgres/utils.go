package postgres

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/khoaugment/pos-api/internal/domain"
)

// Códigos SQLSTATE relevantes.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

// isForeignKeyViolation verifica si un error es una violación de llave foránea (23503).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation
}

// isRetryable clasifica fallos transitorios: serialización, deadlock y conexión.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// storageError envuelve err como domain.StorageError salvo que ya sea un error de dominio
// o una cancelación del contexto.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var se *domain.StorageError
	if errors.As(err, &se) || isDomainError(err) {
		return err
	}
	return &domain.StorageError{Op: op, Err: err, Retryable: isRetryable(err)}
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound, domain.ErrInvalidInput, domain.ErrDuplicate, domain.ErrConflict,
		domain.ErrInsufficientStock, domain.ErrStaleStock, domain.ErrOrderStock, domain.ErrConcurrentModification,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
