package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/khoaugment/pos-api/internal/domain"
	"github.com/khoaugment/pos-api/internal/domain/entity"
)

// OrderLine línea de orden o devolución.
type OrderLine struct {
	ProductID int64
	Quantity  int64
}

// OrderApplier aplica los efectos de stock de órdenes y devoluciones como unidades todo-o-nada.
type OrderApplier struct {
	writer     *LedgerWriter
	dispatcher *AlertDispatcher
	logger     zerolog.Logger
}

// NewOrderApplier construye el aplicador sobre un LedgerWriter.
func NewOrderApplier(writer *LedgerWriter, dispatcher *AlertDispatcher, logger zerolog.Logger) *OrderApplier {
	return &OrderApplier{
		writer:     writer,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// ApplyOrder descuenta el stock de todas las líneas en una sola transacción.
// Si una línea pide más de lo disponible falla con *domain.InsufficientStockError y no aplica nada;
// cualquier otro fallo del lote se devuelve como *domain.OrderStockError.
func (a *OrderApplier) ApplyOrder(ctx context.Context, orderID, userID string, items []OrderLine) ([]MovementResult, error) {
	if err := validateLines(orderID, userID, items); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "inventory.ApplyOrder", trace.WithAttributes(
		attribute.String("order_id", orderID),
		attribute.Int("lines", len(items)),
	))

	changes := make([]plannedChange, 0, len(items))
	for _, it := range items {
		changes = append(changes, plannedChange{
			productID:     it.ProductID,
			movementType:  entity.MovementTypeSale,
			change:        -it.Quantity,
			referenceID:   orderID,
			referenceType: entity.ReferenceTypeOrder,
		})
	}
	results, err := a.writer.commit(ctx, "apply_order", userID, changes, func(p *entity.Product, c plannedChange) error {
		if -c.change > p.Stock {
			return &domain.InsufficientStockError{ProductID: p.ID, Requested: -c.change, Available: p.Stock}
		}
		return nil
	})
	if err != nil {
		var notFound *domain.ProductNotFoundError
		if !errors.Is(err, domain.ErrInsufficientStock) && !errors.As(err, &notFound) {
			err = &domain.OrderStockError{OrderID: orderID, Err: err}
		}
		endSpan(span, err)
		a.logger.Warn().Err(err).Str("order_id", orderID).Msg("no se aplicó el stock de la orden")
		return nil, err
	}
	endSpan(span, nil)

	a.dispatcher.Dispatch(ctx, results, userID)
	return results, nil
}

// ApplyReturn incrementa el stock de todas las líneas en una sola transacción.
// Nunca se rechaza por el nivel de stock resultante.
func (a *OrderApplier) ApplyReturn(ctx context.Context, returnID, userID string, items []OrderLine) ([]MovementResult, error) {
	if err := validateLines(returnID, userID, items); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "inventory.ApplyReturn", trace.WithAttributes(
		attribute.String("return_id", returnID),
		attribute.Int("lines", len(items)),
	))

	changes := make([]plannedChange, 0, len(items))
	for _, it := range items {
		changes = append(changes, plannedChange{
			productID:      it.ProductID,
			movementType:   entity.MovementTypeReturn,
			change:         it.Quantity,
			exemptNegative: true,
			referenceID:    returnID,
			referenceType:  entity.ReferenceTypeReturn,
		})
	}
	results, err := a.writer.commit(ctx, "apply_return", userID, changes, nil)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}
	a.dispatcher.Dispatch(ctx, results, userID)
	return results, nil
}

func validateLines(referenceID, userID string, items []OrderLine) error {
	if referenceID == "" || userID == "" {
		return fmt.Errorf("%w: referencia y usuario requeridos", domain.ErrInvalidInput)
	}
	if len(items) == 0 {
		return fmt.Errorf("%w: se requiere al menos una línea", domain.ErrInvalidInput)
	}
	for i, it := range items {
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: línea %d con cantidad %d", domain.ErrInvalidInput, i+1, it.Quantity)
		}
	}
	return nil
}
