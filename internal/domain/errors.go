package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrProductNotFound        = errors.New("producto no encontrado")
	ErrUserNotFound           = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists     = errors.New("el email ya está registrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
	ErrConflict               = errors.New("conflicto con el estado actual")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrNegativeStock          = errors.New("el movimiento dejaría el stock en negativo")
	ErrOrderStock             = errors.New("no se pudo aplicar el stock de la orden")
	ErrStorage                = errors.New("error de almacenamiento")
	ErrStaleStock             = errors.New("el stock cambió desde la lectura")
	ErrConcurrentModification = errors.New("el producto fue modificado concurrentemente")
)

// ProductNotFoundError el producto referenciado no existe.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("producto %d no encontrado", e.ProductID)
}

// Is permite errors.Is(err, ErrProductNotFound) y errors.Is(err, ErrNotFound).
func (e *ProductNotFoundError) Is(target error) bool {
	return target == ErrProductNotFound || target == ErrNotFound
}

// InvalidOperationError violación de la política de stock negativo.
// Deficit es la cantidad que faltaría (valor positivo).
type InvalidOperationError struct {
	ProductID int64
	Current   int64
	Change    int64
	Deficit   int64
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("producto %d: el movimiento (%+d sobre %d) dejaría el stock en negativo (déficit %d)",
		e.ProductID, e.Change, e.Current, e.Deficit)
}

func (e *InvalidOperationError) Is(target error) bool {
	return target == ErrNegativeStock || target == ErrInvalidInput
}

// InsufficientStockError una línea de la orden pide más de lo disponible.
type InsufficientStockError struct {
	ProductID int64
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para el producto %d: solicitado %d, disponible %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// OrderStockError el lote atómico de la orden falló; nada fue aplicado.
type OrderStockError struct {
	OrderID string
	Err     error
}

func (e *OrderStockError) Error() string {
	return fmt.Sprintf("orden %s: %v", e.OrderID, e.Err)
}

func (e *OrderStockError) Unwrap() error { return e.Err }

func (e *OrderStockError) Is(target error) bool {
	return target == ErrOrderStock
}

// StorageError la escritura atómica falló por infraestructura.
// Retryable indica fallos transitorios (serialización, deadlock, conexión).
type StorageError struct {
	Op        string
	Err       error
	Retryable bool
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("almacenamiento (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// IsRetryable indica si err es un conflicto o fallo transitorio que justifica
// reintentar la unidad atómica completa.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrStaleStock) {
		return true
	}
	var se *StorageError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}
