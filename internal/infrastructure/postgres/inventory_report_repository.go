package postgres

import (
	"context"
	"fmt"

	"github.com/khoaugment/pos-api/internal/domain/entity"
	"github.com/khoaugment/pos-api/internal/domain/repository"
)

var _ repository.InventoryReportRepository = (*InventoryReportRepo)(nil)

// InventoryReportRepo consultas de lectura para reportes de inventario.
type InventoryReportRepo struct {
	q Querier
}

// NewInventoryReportRepository construye el adaptador.
func NewInventoryReportRepository(q Querier) *InventoryReportRepo {
	return &InventoryReportRepo{q: q}
}

// LowStock productos activos con stock <= min_stock, mayor déficit primero.
func (r *InventoryReportRepo) LowStock(ctx context.Context, limit int) ([]entity.LowStockItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT p.id, p.sku, p.name, p.stock, p.min_stock, p.min_stock - p.stock AS deficit, COALESCE(c.name, '')
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.active = true AND p.stock <= p.min_stock
		ORDER BY deficit DESC, p.id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("low stock query: %w", err)
	}
	defer rows.Close()
	var out []entity.LowStockItem
	for rows.Next() {
		var it entity.LowStockItem
		if err := rows.Scan(&it.ProductID, &it.SKU, &it.Name, &it.Stock, &it.MinStock, &it.Deficit, &it.CategoryName); err != nil {
			return nil, fmt.Errorf("scan low stock: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Valuation agrega unidades y stock * cost_price por categoría de productos activos.
func (r *InventoryReportRepo) Valuation(ctx context.Context, categoryID *int64) ([]entity.ValuationRow, error) {
	rows, err := r.q.Query(ctx, `
		SELECT p.category_id, COALESCE(c.name, ''), COUNT(*), COALESCE(SUM(p.stock), 0),
			COALESCE(SUM(p.stock * p.cost_price), 0)
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.active = true AND ($1::bigint IS NULL OR p.category_id = $1)
		GROUP BY p.category_id, c.name
		ORDER BY COALESCE(c.name, '')`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("valuation query: %w", err)
	}
	defer rows.Close()
	var out []entity.ValuationRow
	for rows.Next() {
		var row entity.ValuationRow
		if err := rows.Scan(&row.CategoryID, &row.CategoryName, &row.ProductCount, &row.TotalUnits, &row.TotalValue); err != nil {
			return nil, fmt.Errorf("scan valuation: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
