package entity

import (
	"encoding/json"
	"time"
)

// Acciones registradas en activity_logs.
const (
	ActionLowStockAlert = "low_stock_alert"
	EntityTypeProduct   = "product"
)

// ActivityLog registro genérico de actividad (append-only).
type ActivityLog struct {
	ID         int64
	Action     string
	EntityType string
	EntityID   string
	Details    json.RawMessage
	UserID     string // vacío si lo generó el sistema
	CreatedAt  time.Time
}

// LowStockSnapshot detalle serializado en una alerta de stock bajo.
type LowStockSnapshot struct {
	ProductName  string `json:"product_name"`
	CurrentStock int64  `json:"current_stock"`
	MinStock     int64  `json:"min_stock"`
	Category     string `json:"category"`
}
