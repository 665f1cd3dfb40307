package entity

import "github.com/shopspring/decimal"

// LowStockItem fila del listado de stock bajo.
type LowStockItem struct {
	ProductID    int64
	SKU          string
	Name         string
	Stock        int64
	MinStock     int64
	Deficit      int64 // MinStock - Stock
	CategoryName string
}

// ValuationRow valorización agregada de una categoría.
type ValuationRow struct {
	CategoryID   *int64 // nil = sin categoría
	CategoryName string
	ProductCount int64
	TotalUnits   int64
	TotalValue   decimal.Decimal // SUM(stock * cost_price)
}

// ValuationReport valorización completa con totales.
type ValuationReport struct {
	Rows       []ValuationRow
	TotalUnits int64
	TotalValue decimal.Decimal
}
