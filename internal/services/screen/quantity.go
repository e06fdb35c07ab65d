package screen

import "LureScan/internal/domain/models"

// Quantity ladder thresholds.
const (
	quantitySpikeRatio      = 3.0
	quantitySpikeVolatility = 1.5
	quantityStrongRatio     = 2.5
	quantityStrongVola      = 0.8
	quantityStrongTrend     = 0.3
	quantityModerateRatio   = 1.5
	quantityShrinkRatio     = 0.5
)

// ClassifyQuantity walks the quantity ladder in precedence order.
// SHRINKING_VOLUME is the classification that backs the synthesizer's
// outflow branch: sustained contraction on falling trend.
func ClassifyQuantity(ratio, volatility, trend float64) string {
	switch {
	case ratio > quantitySpikeRatio && volatility > quantitySpikeVolatility:
		return models.QuantityAbnormalSpike
	case ratio > quantityStrongRatio && volatility < quantityStrongVola && trend > quantityStrongTrend:
		return models.QuantityStrongVolume
	case ratio > quantityModerateRatio:
		return models.QuantityModerateVolume
	case ratio > 0 && ratio < quantityShrinkRatio && trend < 0:
		return models.QuantityShrinkingVolume
	default:
		return models.QuantityNormalVolume
	}
}

// AnalyzeQuantity computes volume shape metrics over the window and labels
// them. Recent/prior segments are the last five bars and the five before.
func AnalyzeQuantity(w models.BarWindow) models.DimensionSignal {
	vols := w.Volumes()

	recent := MeanLast(vols, 5)
	prior := MeanPrior(vols, 5)
	ratio := 0.0
	if prior > 0 {
		ratio = recent / prior
	}

	mean := Mean(vols)
	volatility := 0.0
	if mean > 0 {
		volatility = Stddev(vols) / mean
	}

	first := MeanFirst(vols, 5)
	trend := 0.0
	if first > 0 {
		trend = (recent - first) / first
	}

	return models.DimensionSignal{
		Label: ClassifyQuantity(ratio, volatility, trend),
		Metrics: map[string]float64{
			"volume_ratio":      ratio,
			"volume_volatility": volatility,
			"volume_trend":      trend,
		},
	}
}
