package entity

import "time"

// Tipos de movimiento del libro de inventario.
const (
	MovementTypeSale       = "sale"       // venta (salida)
	MovementTypePurchase   = "purchase"   // compra (entrada)
	MovementTypeAdjustment = "adjustment" // ajuste manual, puede dejar stock negativo
	MovementTypeReturn     = "return"     // devolución (entrada)
)

// Tipos de referencia usados por los aplicadores.
const (
	ReferenceTypeOrder  = "order"
	ReferenceTypeReturn = "return"
)

// StockMovement es una entrada inmutable del libro de inventario.
// Invariante: QuantityAfter = QuantityBefore + QuantityChange.
type StockMovement struct {
	ID             int64 // monótono creciente, clave de orden del historial
	ProductID      int64
	MovementType   string
	QuantityChange int64
	QuantityBefore int64
	QuantityAfter  int64
	ReferenceID    string // vacío = sin referencia
	ReferenceType  string
	Notes          string
	UserID         string
	UserName       string // solo en lecturas (join con users)
	CreatedAt      time.Time
}

// IsValidMovementType indica si t pertenece a la enumeración de tipos de movimiento.
func IsValidMovementType(t string) bool {
	switch t {
	case MovementTypeSale, MovementTypePurchase, MovementTypeAdjustment, MovementTypeReturn:
		return true
	}
	return false
}
