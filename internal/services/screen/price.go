package screen

import (
	"math"

	"LureScan/internal/domain/models"
)

// Price ladder thresholds.
const (
	priceViolentChange    = 0.03
	priceViolentAmplitude = 0.03
	priceSteadyChange     = 0.02
	priceSteadyAmplitude  = 0.015
	priceSteadyMomentum   = 0.01
	priceSidewaysBand     = 0.005
	priceDeclineChange    = -0.02
)

// ClassifyPrice walks the price ladder in precedence order.
func ClassifyPrice(change, amplitude, momentum float64) string {
	switch {
	case change > priceViolentChange && amplitude > priceViolentAmplitude:
		return models.PriceViolentRise
	case change > priceSteadyChange && amplitude < priceSteadyAmplitude && momentum > priceSteadyMomentum:
		return models.PriceSteadyRise
	case math.Abs(change) < priceSidewaysBand:
		return models.PriceSideways
	case change < priceDeclineChange:
		return models.PriceDecline
	default:
		return models.PriceNormalFluctuation
	}
}

// AnalyzePrice computes price shape metrics over the window and labels them.
// Momentum compares the last five closes against the mean of everything
// before them.
func AnalyzePrice(w models.BarWindow) models.DimensionSignal {
	change := PriceChange(w)
	amplitude := MeanAmplitude(w)

	closes := w.Closes()
	momentum := 0.0
	if len(closes) > 5 {
		earlier := Mean(closes[:len(closes)-5])
		if earlier > 0 {
			momentum = (MeanLast(closes, 5) - earlier) / earlier
		}
	}

	return models.DimensionSignal{
		Label: ClassifyPrice(change, amplitude, momentum),
		Metrics: map[string]float64{
			"price_change": change,
			"amplitude":    amplitude,
			"momentum":     momentum,
		},
	}
}
