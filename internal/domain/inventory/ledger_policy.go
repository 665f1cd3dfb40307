package inventory

import (
	"github.com/khoaugment/pos-api/internal/domain"
	"github.com/khoaugment/pos-api/internal/domain/entity"
)

// ApplyChange calcula el stock resultante y aplica la política de stock negativo.
// Solo los ajustes pueden dejar el stock por debajo de cero.
func ApplyChange(productID, before, change int64, movementType string) (int64, error) {
	after := before + change
	if after < 0 && movementType != entity.MovementTypeAdjustment {
		return before, &domain.InvalidOperationError{
			ProductID: productID,
			Current:   before,
			Change:    change,
			Deficit:   -after,
		}
	}
	return after, nil
}

// ClassifyStockSet deriva el cambio y el tipo de movimiento para fijar el stock en target.
// Un incremento se registra como compra; cualquier otro cambio como ajuste.
// change == 0 significa que no hay nada que escribir.
func ClassifyStockSet(current, target int64) (change int64, movementType string) {
	change = target - current
	if change > 0 {
		return change, entity.MovementTypePurchase
	}
	return change, entity.MovementTypeAdjustment
}

// AlertPolicy decide cuándo una escritura genera alerta de stock bajo.
type AlertPolicy string

const (
	// AlertPolicyEvery alerta en toda escritura que deja stock <= min_stock.
	AlertPolicyEvery AlertPolicy = "every"
	// AlertPolicyCrossing alerta solo al cruzar el umbral desde arriba.
	AlertPolicyCrossing AlertPolicy = "crossing"
)

// ParseAlertPolicy interpreta el valor de configuración; desconocido o vacío => every.
func ParseAlertPolicy(s string) AlertPolicy {
	if AlertPolicy(s) == AlertPolicyCrossing {
		return AlertPolicyCrossing
	}
	return AlertPolicyEvery
}

// ShouldAlert indica si la transición before -> after dispara una alerta.
func (p AlertPolicy) ShouldAlert(before, after, minStock int64) bool {
	if after > minStock {
		return false
	}
	if p == AlertPolicyCrossing {
		return before > minStock
	}
	return true
}

// ChainBreak describe el primer eslabón roto del libro de un producto.
type ChainBreak struct {
	MovementID int64
	Expected   int64 // quantity_before esperado
	Found      int64
	Reason     string
}

// Motivos de ruptura de la cadena.
const (
	BreakArithmetic = "quantity_after != quantity_before + quantity_change"
	BreakGap        = "quantity_before != quantity_after del movimiento anterior"
	BreakStock      = "stock del producto != quantity_after del último movimiento"
)

// VerifyChain valida la aritmética de cada movimiento, la continuidad entre movimientos
// consecutivos y que stock coincida con el último quantity_after.
// movements debe venir ordenado por id ascendente. Devuelve nil si el libro cuadra.
func VerifyChain(stock int64, movements []*entity.StockMovement) *ChainBreak {
	for i, m := range movements {
		if m.QuantityBefore+m.QuantityChange != m.QuantityAfter {
			return &ChainBreak{MovementID: m.ID, Expected: m.QuantityBefore + m.QuantityChange, Found: m.QuantityAfter, Reason: BreakArithmetic}
		}
		if i > 0 && movements[i-1].QuantityAfter != m.QuantityBefore {
			return &ChainBreak{MovementID: m.ID, Expected: movements[i-1].QuantityAfter, Found: m.QuantityBefore, Reason: BreakGap}
		}
	}
	if n := len(movements); n > 0 && movements[n-1].QuantityAfter != stock {
		return &ChainBreak{MovementID: movements[n-1].ID, Expected: movements[n-1].QuantityAfter, Found: stock, Reason: BreakStock}
	}
	return nil
}
