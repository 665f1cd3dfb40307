package inventory

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/khoaugment/pos-api/internal/domain/entity"
	"github.com/khoaugment/pos-api/internal/domain/inventory"
	"github.com/khoaugment/pos-api/internal/domain/repository"
)

// AlertTrigger registra en activity_logs una alerta cuando una escritura deja stock <= min_stock.
// Es best-effort: cualquier fallo se registra en el log y se descarta.
type AlertTrigger struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	logRepo      repository.ActivityLogRepository
	policy       inventory.AlertPolicy
	logger       zerolog.Logger
	metrics      *ledgerMetrics
}

// NewAlertTrigger construye el disparador de alertas con la política indicada.
func NewAlertTrigger(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	logRepo repository.ActivityLogRepository,
	policy inventory.AlertPolicy,
	logger zerolog.Logger,
) *AlertTrigger {
	return &AlertTrigger{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		logRepo:      logRepo,
		policy:       policy,
		logger:       logger,
		metrics:      newLedgerMetrics(),
	}
}

// Check evalúa el resultado de una escritura y agrega la alerta si corresponde.
// Devuelve true si se registró una alerta. Nunca propaga errores.
func (t *AlertTrigger) Check(ctx context.Context, res MovementResult, userID string) bool {
	if t == nil || !res.Changed {
		return false
	}
	if !t.policy.ShouldAlert(res.PreviousStock, res.NewStock, res.MinStock) {
		return false
	}
	log := t.logger.With().Int64("product_id", res.ProductID).Int64("stock", res.NewStock).Logger()

	product, err := t.productRepo.GetByID(ctx, res.ProductID)
	if err != nil || product == nil {
		log.Warn().Err(err).Msg("alerta de stock bajo: no se pudo leer el producto")
		return false
	}
	categoryName := ""
	if product.CategoryID != nil {
		cat, err := t.categoryRepo.GetByID(ctx, *product.CategoryID)
		if err != nil {
			log.Warn().Err(err).Msg("alerta de stock bajo: no se pudo leer la categoría")
		} else if cat != nil {
			categoryName = cat.Name
		}
	}

	details, err := json.Marshal(entity.LowStockSnapshot{
		ProductName:  product.Name,
		CurrentStock: res.NewStock,
		MinStock:     res.MinStock,
		Category:     categoryName,
	})
	if err != nil {
		log.Warn().Err(err).Msg("alerta de stock bajo: serializar detalle")
		return false
	}
	entry := &entity.ActivityLog{
		Action:     entity.ActionLowStockAlert,
		EntityType: entity.EntityTypeProduct,
		EntityID:   strconv.FormatInt(res.ProductID, 10),
		Details:    details,
		UserID:     userID,
	}
	if err := t.logRepo.Create(ctx, entry); err != nil {
		log.Warn().Err(err).Msg("alerta de stock bajo: no se pudo registrar")
		return false
	}
	t.metrics.alerts.Add(ctx, 1)
	log.Info().Int64("min_stock", res.MinStock).Msg("alerta de stock bajo registrada")
	return true
}

// AlertDispatcher ejecuta las alertas de órdenes y devoluciones en segundo plano.
// Wait permite drenar las alertas pendientes al apagar el servidor y en tests.
type AlertDispatcher struct {
	trigger *AlertTrigger
	logger  zerolog.Logger
	wg      sync.WaitGroup
}

// NewAlertDispatcher construye el despachador asíncrono.
func NewAlertDispatcher(trigger *AlertTrigger, logger zerolog.Logger) *AlertDispatcher {
	return &AlertDispatcher{trigger: trigger, logger: logger}
}

// Dispatch revisa cada resultado en una goroutine. El contexto no propaga la cancelación
// de la petición: la orden ya está confirmada.
func (d *AlertDispatcher) Dispatch(ctx context.Context, results []MovementResult, userID string) {
	if d == nil || d.trigger == nil || len(results) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error().Interface("panic", r).Msg("alerta de stock bajo: pánico recuperado")
			}
		}()
		for _, res := range results {
			d.trigger.Check(ctx, res, userID)
		}
	}()
}

// Wait bloquea hasta que terminen las alertas despachadas.
func (d *AlertDispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

// Drain espera las alertas pendientes o hasta que ctx expire.
func (d *AlertDispatcher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
