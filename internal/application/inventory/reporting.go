package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/khoaugment/pos-api/internal/domain"
	"github.com/khoaugment/pos-api/internal/domain/entity"
	"github.com/khoaugment/pos-api/internal/domain/inventory"
	"github.com/khoaugment/pos-api/internal/domain/repository"
)

// Límites de paginación de las consultas.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ErrReportStorageDisabled no hay almacén de objetos configurado para exportar reportes.
var ErrReportStorageDisabled = errors.New("almacenamiento de reportes no configurado")

// ReportingService consultas de solo lectura sobre productos y el libro de movimientos.
type ReportingService struct {
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
	reportRepo   repository.InventoryReportRepository
}

// NewReportingService construye el servicio de consultas.
func NewReportingService(
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	reportRepo repository.InventoryReportRepository,
) *ReportingService {
	return &ReportingService{productRepo: productRepo, movementRepo: movementRepo, reportRepo: reportRepo}
}

// MovementPage página del historial de un producto.
type MovementPage struct {
	Items  []*entity.StockMovement
	Limit  int
	Offset int
	Total  int
}

// MovementHistory devuelve el historial más reciente primero.
func (s *ReportingService) MovementHistory(ctx context.Context, productID int64, limit, offset int) (*MovementPage, error) {
	limit, offset = normalizePage(limit, offset)
	if err := s.ensureProduct(ctx, productID); err != nil {
		return nil, err
	}
	items, err := s.movementRepo.ListByProduct(ctx, productID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.movementRepo.CountByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &MovementPage{Items: items, Limit: limit, Offset: offset, Total: total}, nil
}

// LowStockEntry producto bajo mínimo con la cantidad sugerida de reposición.
type LowStockEntry struct {
	entity.LowStockItem
	SuggestedOrderQty int64 // ceil(MinStock * 1.5) - Stock
}

// LowStock lista productos activos con stock <= min_stock, mayor déficit primero.
func (s *ReportingService) LowStock(ctx context.Context, limit int) ([]LowStockEntry, error) {
	limit, _ = normalizePage(limit, 0)
	rows, err := s.reportRepo.LowStock(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]LowStockEntry, 0, len(rows))
	for _, r := range rows {
		ideal := decimal.NewFromInt(r.MinStock).Mul(decimal.NewFromFloat(1.5)).Ceil().IntPart()
		suggested := ideal - r.Stock
		if suggested < 0 {
			suggested = 0
		}
		out = append(out, LowStockEntry{LowStockItem: r, SuggestedOrderQty: suggested})
	}
	return out, nil
}

// Valuation agrega stock * cost_price por categoría y calcula los totales.
func (s *ReportingService) Valuation(ctx context.Context, categoryID *int64) (*entity.ValuationReport, error) {
	rows, err := s.reportRepo.Valuation(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	report := &entity.ValuationReport{Rows: rows, TotalValue: decimal.Zero}
	for _, r := range rows {
		report.TotalUnits += r.TotalUnits
		report.TotalValue = report.TotalValue.Add(r.TotalValue)
	}
	return report, nil
}

// ReconcileReport resultado de auditar el libro de un producto.
type ReconcileReport struct {
	ProductID         int64
	Stock             int64
	MovementCount     int
	LastQuantityAfter *int64
	Consistent        bool
	Break             *inventory.ChainBreak
	CheckedAt         time.Time
}

// Reconcile verifica que stock == quantity_after del último movimiento y la continuidad de la cadena.
func (s *ReportingService) Reconcile(ctx context.Context, productID int64) (*ReconcileReport, error) {
	p, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &domain.ProductNotFoundError{ProductID: productID}
	}
	chain, err := s.movementRepo.ListChain(ctx, productID)
	if err != nil {
		return nil, err
	}
	rep := &ReconcileReport{
		ProductID:     productID,
		Stock:         p.Stock,
		MovementCount: len(chain),
		CheckedAt:     time.Now().UTC(),
	}
	if n := len(chain); n > 0 {
		last := chain[n-1].QuantityAfter
		rep.LastQuantityAfter = &last
	}
	rep.Break = inventory.VerifyChain(p.Stock, chain)
	rep.Consistent = rep.Break == nil
	return rep, nil
}

func (s *ReportingService) ensureProduct(ctx context.Context, productID int64) error {
	p, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return &domain.ProductNotFoundError{ProductID: productID}
	}
	return nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
