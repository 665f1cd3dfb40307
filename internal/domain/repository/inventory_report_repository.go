package repository

import (
	"context"

	"github.com/khoaugment/pos-api/internal/domain/entity"
)

// InventoryReportRepository consultas de lectura sobre productos (read-only).
type InventoryReportRepository interface {
	// LowStock devuelve productos activos con stock <= min_stock ordenados por déficit descendente.
	LowStock(ctx context.Context, limit int) ([]entity.LowStockItem, error)
	// Valuation agrega stock * cost_price por categoría; categoryID nil = todas.
	Valuation(ctx context.Context, categoryID *int64) ([]entity.ValuationRow, error)
}
