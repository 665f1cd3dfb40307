package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/khoaugment/pos-api/internal/domain/entity"
	"github.com/khoaugment/pos-api/internal/domain/repository"
)

var _ repository.InventoryReportRepository = (*InventoryReportRepo)(nil)

// InventoryReportRepo consultas de reporte en memoria.
type InventoryReportRepo struct{ s *Store }

// NewInventoryReportRepository construye el repositorio de reportes.
func NewInventoryReportRepository(s *Store) *InventoryReportRepo { return &InventoryReportRepo{s: s} }

func (r *InventoryReportRepo) LowStock(_ context.Context, limit int) ([]entity.LowStockItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []entity.LowStockItem
	for _, p := range r.s.products {
		if !p.Active || p.Stock > p.MinStock {
			continue
		}
		out = append(out, entity.LowStockItem{
			ProductID:    p.ID,
			SKU:          p.SKU,
			Name:         p.Name,
			Stock:        p.Stock,
			MinStock:     p.MinStock,
			Deficit:      p.MinStock - p.Stock,
			CategoryName: r.categoryName(p.CategoryID),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Deficit != out[j].Deficit {
			return out[i].Deficit > out[j].Deficit
		}
		return out[i].ProductID < out[j].ProductID
	})
	return paginate(out, limit, 0), nil
}

func (r *InventoryReportRepo) Valuation(_ context.Context, categoryID *int64) ([]entity.ValuationRow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	const uncategorized = int64(0)
	rows := make(map[int64]*entity.ValuationRow)
	for _, p := range r.s.products {
		if !p.Active {
			continue
		}
		if categoryID != nil && (p.CategoryID == nil || *p.CategoryID != *categoryID) {
			continue
		}
		key := uncategorized
		if p.CategoryID != nil {
			key = *p.CategoryID
		}
		row, ok := rows[key]
		if !ok {
			row = &entity.ValuationRow{CategoryName: r.categoryName(p.CategoryID), TotalValue: decimal.Zero}
			if p.CategoryID != nil {
				id := *p.CategoryID
				row.CategoryID = &id
			}
			rows[key] = row
		}
		row.ProductCount++
		row.TotalUnits += p.Stock
		row.TotalValue = row.TotalValue.Add(p.CostPrice.Mul(decimal.NewFromInt(p.Stock)))
	}
	out := make([]entity.ValuationRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryName < out[j].CategoryName })
	return out, nil
}

func (r *InventoryReportRepo) categoryName(id *int64) string {
	if id == nil {
		return ""
	}
	if c, ok := r.s.categories[*id]; ok {
		return c.Name
	}
	return ""
}
