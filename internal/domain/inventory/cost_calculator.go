package inventory

import "github.com/shopspring/decimal"

// Scale decimales que persisten cantidades y costos (NUMERIC(18,4)).
const Scale = 4

var maxMagnitude = decimal.New(1, 18-Scale)

// Representable indica si v se guarda sin redondeo ni desbordamiento en NUMERIC(18,4).
// Ceros a la derecha no cuentan: 1.50000 es representable.
func Representable(v decimal.Decimal) bool {
	return v.Equal(v.Truncate(Scale)) && v.Abs().LessThan(maxMagnitude)
}

// WeightedAverageCost costo promedio ponderado (servicio de dominio). Se usa al recibir
// sobre un lote existente:
// NuevoCosto = ((CantActual * CostoActual) + (CantEntrada * CostoEntrada)) / (CantActual + CantEntrada)
// El resultado se redondea a Scale.
func WeightedAverageCost(currentQty, currentCost, incomingQty, incomingCost decimal.Decimal) decimal.Decimal {
	sum := currentQty.Add(incomingQty)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := currentQty.Mul(currentCost).Add(incomingQty.Mul(incomingCost))
	return num.Div(sum).Round(Scale)
}
