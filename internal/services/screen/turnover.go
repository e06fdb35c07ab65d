package screen

import (
	"math"

	"LureScan/internal/domain/models"
)

// Space (turnover) ladder thresholds.
const (
	spaceHighTurnover     = 0.02
	spaceHighTrend        = 0.20
	spaceModerateLow      = 0.005
	spaceModerateHigh     = 0.015
	spaceModerateTrendAbs = 0.10
	spaceLowTurnover      = 0.003
)

// ClassifySpace walks the turnover ladder. hasRef=false means float shares
// are unknown and turnover cannot be determined.
func ClassifySpace(turnover, trend float64, hasRef bool) string {
	switch {
	case !hasRef:
		return models.SpaceNoEquityData
	case turnover > spaceHighTurnover && trend > spaceHighTrend:
		return models.SpaceHighTurnoverRising
	case turnover > spaceModerateLow && turnover < spaceModerateHigh && math.Abs(trend) < spaceModerateTrendAbs:
		return models.SpaceModerateTurnoverStable
	case turnover < spaceLowTurnover:
		return models.SpaceLowTurnover
	default:
		return models.SpaceNormalTurnover
	}
}

// AnalyzeSpace computes turnover over the window against float shares. The
// trend compares the last five bars' volume against the five before; float
// shares cancel out of that ratio.
func AnalyzeSpace(w models.BarWindow, ref *models.ReferenceInfo) models.DimensionSignal {
	hasRef := ref != nil && ref.FloatShares > 0
	turnover := Turnover(w, ref)

	vols := w.Volumes()
	recent := MeanLast(vols, 5)
	prior := MeanPrior(vols, 5)
	trend := 0.0
	if prior > 0 {
		trend = (recent - prior) / prior
	}

	return models.DimensionSignal{
		Label: ClassifySpace(turnover, trend, hasRef),
		Metrics: map[string]float64{
			"turnover":       turnover,
			"turnover_trend": trend,
		},
	}
}
