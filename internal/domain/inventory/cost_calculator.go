package inventory

import "github.com/shopspring/decimal"

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Un stock actual negativo (tras un ajuste) no aporta valor al promedio.
func CostCalculator(stockActual int64, costoActual decimal.Decimal, cantEntrada int64, costoEntrada decimal.Decimal) decimal.Decimal {
	if stockActual < 0 {
		stockActual = 0
	}
	sum := stockActual + cantEntrada
	if sum <= 0 {
		return costoActual
	}
	num := decimal.NewFromInt(stockActual).Mul(costoActual).
		Add(decimal.NewFromInt(cantEntrada).Mul(costoEntrada))
	return num.Div(decimal.NewFromInt(sum)).Round(2)
}
