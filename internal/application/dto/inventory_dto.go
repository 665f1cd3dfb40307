package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SetStockRequest body para PUT /api/inventory/stock.
type SetStockRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	NewStock  *int64 `json:"new_stock" validate:"required,min=0"`
	Notes     string `json:"notes,omitempty" validate:"max=500"`
}

// RecordMovementRequest body para POST /api/inventory/movement y cada ítem del lote.
// UnitCost solo se usa en compras (recalcula el costo promedio).
type RecordMovementRequest struct {
	ProductID      int64            `json:"product_id" validate:"required,gt=0"`
	MovementType   string           `json:"movement_type" validate:"required,oneof=sale purchase adjustment return"`
	QuantityChange int64            `json:"quantity_change" validate:"required"`
	ReferenceID    string           `json:"reference_id,omitempty" validate:"max=64"`
	ReferenceType  string           `json:"reference_type,omitempty" validate:"max=32"`
	Notes          string           `json:"notes,omitempty" validate:"max=500"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
}

// BatchMovementRequest body para POST /api/inventory/batch-movement.
// Los ítems se validan uno a uno para reportar éxito parcial.
type BatchMovementRequest struct {
	Movements []RecordMovementRequest `json:"movements" validate:"required,min=1,max=500"`
}

// StockLineRequest línea de orden o devolución.
type StockLineRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gt=0"`
}

// ReturnRequest body para POST /api/inventory/returns. Sin ReturnID se genera uno.
type ReturnRequest struct {
	ReturnID string             `json:"return_id,omitempty" validate:"omitempty,max=64"`
	Items    []StockLineRequest `json:"items" validate:"required,min=1,max=200,dive"`
}

// MovementResponse resultado de una escritura en el libro.
type MovementResponse struct {
	ProductID     int64  `json:"product_id"`
	MovementID    int64  `json:"movement_id,omitempty"`
	MovementType  string `json:"movement_type,omitempty"`
	PreviousStock int64  `json:"previous_stock"`
	NewStock      int64  `json:"new_stock"`
	Changed       bool   `json:"changed"`
}

// BatchItemResponse resultado individual del lote.
type BatchItemResponse struct {
	Index      int            `json:"index"`
	ProductID  int64          `json:"product_id"`
	Success    bool           `json:"success"`
	NewStock   *int64         `json:"new_stock,omitempty"`
	MovementID *int64         `json:"movement_id,omitempty"`
	Error      *ErrorResponse `json:"error,omitempty"`
}

// BatchMovementResponse resultado del lote con éxito parcial.
type BatchMovementResponse struct {
	Results    []BatchItemResponse `json:"results"`
	Total      int                 `json:"total"`
	Successful int                 `json:"successful"`
	Failed     int                 `json:"failed"`
}

// ReturnResponse resultado de una devolución.
type ReturnResponse struct {
	ReturnID  string             `json:"return_id"`
	Movements []MovementResponse `json:"movements"`
}

// StockMovementDTO fila del historial.
type StockMovementDTO struct {
	ID             int64     `json:"id"`
	ProductID      int64     `json:"product_id"`
	MovementType   string    `json:"movement_type"`
	QuantityChange int64     `json:"quantity_change"`
	QuantityBefore int64     `json:"quantity_before"`
	QuantityAfter  int64     `json:"quantity_after"`
	ReferenceID    string    `json:"reference_id,omitempty"`
	ReferenceType  string    `json:"reference_type,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	UserID         string    `json:"user_id"`
	UserName       string    `json:"user_name"`
	CreatedAt      time.Time `json:"created_at"`
}

// MovementHistoryResponse historial paginado.
type MovementHistoryResponse struct {
	Items []StockMovementDTO `json:"items"`
	Page  PageResponse       `json:"page"`
}

// LowStockItemDTO producto bajo mínimo.
type LowStockItemDTO struct {
	ProductID         int64  `json:"product_id"`
	SKU               string `json:"sku"`
	Name              string `json:"name"`
	Stock             int64  `json:"stock"`
	MinStock          int64  `json:"min_stock"`
	Deficit           int64  `json:"deficit"`
	Category          string `json:"category"`
	SuggestedOrderQty int64  `json:"suggested_order_qty"`
}

// LowStockResponse listado de stock bajo.
type LowStockResponse struct {
	Items []LowStockItemDTO `json:"items"`
	Count int               `json:"count"`
}

// ValuationRowDTO valorización por categoría.
type ValuationRowDTO struct {
	CategoryID   *int64          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	ProductCount int64           `json:"product_count"`
	TotalUnits   int64           `json:"total_units"`
	TotalValue   decimal.Decimal `json:"total_value"`
}

// ValuationResponse valorización con totales.
type ValuationResponse struct {
	Categories []ValuationRowDTO `json:"categories"`
	TotalUnits int64             `json:"total_units"`
	TotalValue decimal.Decimal   `json:"total_value"`
}

// ValuationExportResponse reporte publicado en el almacén de objetos.
type ValuationExportResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ChainBreakDTO primer eslabón roto del libro.
type ChainBreakDTO struct {
	MovementID int64  `json:"movement_id"`
	Expected   int64  `json:"expected"`
	Found      int64  `json:"found"`
	Reason     string `json:"reason"`
}

// ReconcileResponse auditoría del libro de un producto.
type ReconcileResponse struct {
	ProductID         int64          `json:"product_id"`
	Stock             int64          `json:"stock"`
	MovementCount     int            `json:"movement_count"`
	LastQuantityAfter *int64         `json:"last_quantity_after"`
	Consistent        bool           `json:"consistent"`
	Break             *ChainBreakDTO `json:"break,omitempty"`
	CheckedAt         time.Time      `json:"checked_at"`
}
