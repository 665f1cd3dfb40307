package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/khoaugment/pos-api/internal/application/dto"
	"github.com/khoaugment/pos-api/internal/application/inventory"
	"github.com/khoaugment/pos-api/internal/domain"
	"github.com/khoaugment/pos-api/internal/domain/entity"
	"github.com/khoaugment/pos-api/internal/domain/repository"
)

// OrderStockApplier puerto del aplicador de stock de órdenes.
type OrderStockApplier interface {
	ApplyOrder(ctx context.Context, orderID, userID string, items []inventory.OrderLine) ([]inventory.MovementResult, error)
}

// OrderUseCase persiste la orden y delega sus efectos de stock al aplicador.
// Estados: pending -> completed, o failed si el stock no se pudo aplicar.
type OrderUseCase struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	applier     OrderStockApplier
	logger      zerolog.Logger
}

// NewOrderUseCase construye el caso de uso.
func NewOrderUseCase(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	applier OrderStockApplier,
	logger zerolog.Logger,
) *OrderUseCase {
	return &OrderUseCase{orderRepo: orderRepo, productRepo: productRepo, applier: applier, logger: logger}
}

// Create valida las líneas contra el catálogo, guarda la orden y aplica el stock.
func (uc *OrderUseCase) Create(ctx context.Context, userID string, in dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	order := &entity.Order{
		ID:     uuid.New().String(),
		Status: entity.OrderStatusPending,
		Total:  decimal.Zero,
		UserID: userID,
	}
	lines := make([]inventory.OrderLine, 0, len(in.Items))
	for _, it := range in.Items {
		p, err := uc.productRepo.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, &domain.ProductNotFoundError{ProductID: it.ProductID}
		}
		if !p.Active {
			return nil, domain.ErrInvalidInput
		}
		item := entity.OrderItem{OrderID: order.ID, ProductID: p.ID, Quantity: it.Quantity, UnitPrice: p.Price}
		order.Items = append(order.Items, item)
		order.Total = order.Total.Add(item.Subtotal())
		lines = append(lines, inventory.OrderLine{ProductID: p.ID, Quantity: it.Quantity})
	}
	if err := uc.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	results, err := uc.applier.ApplyOrder(ctx, order.ID, userID, lines)
	if err != nil {
		if uerr := uc.orderRepo.UpdateStatus(context.WithoutCancel(ctx), order.ID, entity.OrderStatusFailed); uerr != nil {
			uc.logger.Error().Err(uerr).Str("order_id", order.ID).Msg("no se pudo marcar la orden como fallida")
		}
		return nil, err
	}
	if err := uc.orderRepo.UpdateStatus(ctx, order.ID, entity.OrderStatusCompleted); err != nil {
		// El stock ya está confirmado; la orden queda pending para revisión.
		uc.logger.Error().Err(err).Str("order_id", order.ID).Msg("stock aplicado pero la orden no se marcó completada")
	} else {
		order.Status = entity.OrderStatusCompleted
	}

	resp := &dto.OrderResponse{
		ID:        order.ID,
		Status:    order.Status,
		Total:     order.Total,
		UserID:    order.UserID,
		CreatedAt: time.Now().UTC(),
	}
	if !order.CreatedAt.IsZero() {
		resp.CreatedAt = order.CreatedAt
	}
	for _, it := range order.Items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice, Subtotal: it.Subtotal(),
		})
	}
	for _, r := range results {
		resp.Movements = append(resp.Movements, dto.MovementResponse{
			ProductID:     r.ProductID,
			MovementID:    r.MovementID,
			MovementType:  r.MovementType,
			PreviousStock: r.PreviousStock,
			NewStock:      r.NewStock,
			Changed:       r.Changed,
		})
	}
	return resp, nil
}
