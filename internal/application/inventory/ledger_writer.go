package inventory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/khoaugment/pos-api/internal/domain"
	"github.com/khoaugment/pos-api/internal/domain/entity"
	"github.com/khoaugment/pos-api/internal/domain/inventory"
	"github.com/khoaugment/pos-api/internal/domain/repository"
)

// LedgerWriter es el único punto que modifica products.stock y agrega movimientos al libro.
// Cada escritura: lock por producto en proceso, transacción con compare-and-swap sobre stock,
// reintento acotado ante conflictos y alerta de stock bajo después del commit.
type LedgerWriter struct {
	txRunner TxRunner
	locker   *ProductLocker
	alerts   *AlertTrigger
	retry    RetryConfig
	logger   zerolog.Logger
	metrics  *ledgerMetrics
}

// NewLedgerWriter construye el escritor. alerts puede ser nil (sin alertas).
func NewLedgerWriter(
	txRunner TxRunner,
	locker *ProductLocker,
	alerts *AlertTrigger,
	retry RetryConfig,
	logger zerolog.Logger,
) *LedgerWriter {
	if locker == nil {
		locker = NewProductLocker()
	}
	return &LedgerWriter{
		txRunner: txRunner,
		locker:   locker,
		alerts:   alerts,
		retry:    retry,
		logger:   logger,
		metrics:  newLedgerMetrics(),
	}
}

// MovementInput entrada para RecordMovement.
// UnitCost solo aplica a compras con cambio positivo (recalcula cost_price).
type MovementInput struct {
	ProductID      int64
	MovementType   string
	QuantityChange int64
	UserID         string
	ReferenceID    string
	ReferenceType  string
	Notes          string
	UnitCost       *decimal.Decimal
}

// SetStockInput entrada para SetStock.
type SetStockInput struct {
	ProductID int64
	NewStock  int64
	UserID    string
	Notes     string
}

// MovementResult resultado de una escritura en el libro.
// Changed es false cuando SetStock no tuvo nada que escribir (MovementID = 0).
type MovementResult struct {
	ProductID     int64
	MovementID    int64
	MovementType  string
	PreviousStock int64
	NewStock      int64
	MinStock      int64
	Changed       bool
}

// plannedChange una línea de la unidad atómica.
type plannedChange struct {
	productID      int64
	movementType   string
	change         int64
	target         *int64 // SetStock: el cambio se deriva dentro de la tx
	exemptNegative bool   // devoluciones: nunca se rechazan por nivel de stock
	referenceID    string
	referenceType  string
	notes          string
	unitCost       *decimal.Decimal
}

// lineGuard validación adicional por línea con el producto leído dentro de la tx.
type lineGuard func(p *entity.Product, c plannedChange) error

// RecordMovement registra un movimiento y actualiza el stock de forma atómica.
// El cambio cero no es especial: se registra un movimiento con before == after.
func (w *LedgerWriter) RecordMovement(ctx context.Context, in MovementInput) (*MovementResult, error) {
	if !entity.IsValidMovementType(in.MovementType) {
		return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, in.MovementType)
	}
	if in.UserID == "" {
		return nil, fmt.Errorf("%w: user_id requerido", domain.ErrInvalidInput)
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, fmt.Errorf("%w: unit_cost negativo", domain.ErrInvalidInput)
	}

	ctx, span := tracer.Start(ctx, "inventory.RecordMovement", trace.WithAttributes(
		attribute.Int64("product_id", in.ProductID),
		attribute.String("movement_type", in.MovementType),
		attribute.Int64("quantity_change", in.QuantityChange),
	))
	results, err := w.commit(ctx, "record_movement", in.UserID, []plannedChange{{
		productID:     in.ProductID,
		movementType:  in.MovementType,
		change:        in.QuantityChange,
		referenceID:   in.ReferenceID,
		referenceType: in.ReferenceType,
		notes:         in.Notes,
		unitCost:      in.UnitCost,
	}}, nil)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}
	res := results[0]
	w.alerts.Check(ctx, res, in.UserID)
	return &res, nil
}

// SetStock fija el stock en NewStock. Si no hay diferencia no escribe nada.
// Un incremento se registra como compra y cualquier disminución como ajuste.
func (w *LedgerWriter) SetStock(ctx context.Context, in SetStockInput) (*MovementResult, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("%w: user_id requerido", domain.ErrInvalidInput)
	}
	ctx, span := tracer.Start(ctx, "inventory.SetStock", trace.WithAttributes(
		attribute.Int64("product_id", in.ProductID),
		attribute.Int64("new_stock", in.NewStock),
	))
	target := in.NewStock
	results, err := w.commit(ctx, "set_stock", in.UserID, []plannedChange{{
		productID: in.ProductID,
		target:    &target,
		notes:     in.Notes,
	}}, nil)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}
	res := results[0]
	if res.Changed {
		w.alerts.Check(ctx, res, in.UserID)
	}
	return &res, nil
}

// commit aplica changes como una sola unidad atómica con reintentos.
// Los locks de producto se liberan antes de devolver, sin esperar efectos secundarios.
func (w *LedgerWriter) commit(ctx context.Context, op, userID string, changes []plannedChange, guard lineGuard) ([]MovementResult, error) {
	ids := make([]int64, 0, len(changes))
	for _, c := range changes {
		ids = append(ids, c.productID)
	}
	unlock, err := w.locker.Lock(ctx, ids...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var results []MovementResult
	err = w.retryAtomic(ctx, op, func() error {
		results = make([]MovementResult, 0, len(changes))
		return w.txRunner.Run(ctx, func(productRepo repository.ProductRepository, movementRepo repository.StockMovementRepository) error {
			seen := make(map[int64]*entity.Product, len(changes))
			for _, c := range changes {
				p, ok := seen[c.productID]
				if !ok {
					found, err := productRepo.GetByID(ctx, c.productID)
					if err != nil {
						return err
					}
					if found == nil {
						return &domain.ProductNotFoundError{ProductID: c.productID}
					}
					p = found
					seen[c.productID] = p
				}
				res, err := w.applyLine(ctx, productRepo, movementRepo, p, c, userID, guard)
				if err != nil {
					return err
				}
				results = append(results, res)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.Changed {
			w.metrics.recordMovement(ctx, r.MovementType)
		}
	}
	w.logger.Debug().Str("op", op).Int("lineas", len(results)).Msg("escritura de inventario confirmada")
	return results, nil
}

// applyLine escribe una línea dentro de la transacción: CAS sobre stock y luego el movimiento.
// p refleja el stock ya modificado por líneas anteriores del mismo producto.
func (w *LedgerWriter) applyLine(
	ctx context.Context,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	p *entity.Product,
	c plannedChange,
	userID string,
	guard lineGuard,
) (MovementResult, error) {
	if c.target != nil {
		c.change, c.movementType = inventory.ClassifyStockSet(p.Stock, *c.target)
		if c.change == 0 {
			return MovementResult{
				ProductID:     p.ID,
				PreviousStock: p.Stock,
				NewStock:      p.Stock,
				MinStock:      p.MinStock,
			}, nil
		}
	}
	if guard != nil {
		if err := guard(p, c); err != nil {
			return MovementResult{}, err
		}
	}

	before := p.Stock
	after := before + c.change
	if !c.exemptNegative {
		var err error
		if after, err = inventory.ApplyChange(p.ID, before, c.change, c.movementType); err != nil {
			return MovementResult{}, err
		}
	}

	if err := productRepo.CompareAndSwapStock(ctx, p.ID, before, after); err != nil {
		return MovementResult{}, err
	}
	if c.unitCost != nil && c.movementType == entity.MovementTypePurchase && c.change > 0 {
		cost := inventory.CostCalculator(before, p.CostPrice, c.change, *c.unitCost)
		if err := productRepo.UpdateCost(ctx, p.ID, cost); err != nil {
			return MovementResult{}, err
		}
		p.CostPrice = cost
	}

	mov := &entity.StockMovement{
		ProductID:      p.ID,
		MovementType:   c.movementType,
		QuantityChange: c.change,
		QuantityBefore: before,
		QuantityAfter:  after,
		ReferenceID:    c.referenceID,
		ReferenceType:  c.referenceType,
		Notes:          c.notes,
		UserID:         userID,
	}
	if err := movementRepo.Create(ctx, mov); err != nil {
		return MovementResult{}, err
	}
	p.Stock = after

	return MovementResult{
		ProductID:     p.ID,
		MovementID:    mov.ID,
		MovementType:  c.movementType,
		PreviousStock: before,
		NewStock:      after,
		MinStock:      p.MinStock,
		Changed:       true,
	}, nil
}
