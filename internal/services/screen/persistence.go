package screen

import "LureScan/internal/domain/models"

// Time-persistence ladder thresholds.
const (
	persistSurgeVolumeFactor = 1.5
	persistSustainedRatio    = 0.7
	persistTailRatio         = 0.5
	persistModerateRatio     = 0.4
	persistLookback          = 10
)

// ClassifyTime walks the persistence ladder given the surge ratio and the
// session period of the window's last bar.
func ClassifyTime(surgeRatio float64, period SessionPeriod) string {
	switch {
	case surgeRatio > persistSustainedRatio && period == PeriodNormal:
		return models.TimeSustainedActivity
	case surgeRatio > persistTailRatio && period == PeriodClosing:
		return models.TimeTailSurge
	case surgeRatio > persistModerateRatio:
		return models.TimeModerateActivity
	default:
		return models.TimeShortSpike
	}
}

// AnalyzeTime computes the fraction of the last ten bars whose volume exceeds
// 1.5x the window mean, then labels it against the session period.
func AnalyzeTime(w models.BarWindow) models.DimensionSignal {
	vols := w.Volumes()
	mean := Mean(vols)

	lookback := persistLookback
	if len(vols) < lookback {
		lookback = len(vols)
	}
	surged := 0
	if mean > 0 && lookback > 0 {
		for _, v := range vols[len(vols)-lookback:] {
			if v > persistSurgeVolumeFactor*mean {
				surged++
			}
		}
	}
	surgeRatio := 0.0
	if lookback > 0 {
		surgeRatio = float64(surged) / float64(lookback)
	}

	period := PeriodNormal
	if w.Len() > 0 {
		period = PeriodAt(w.Last().Bucket)
	}

	return models.DimensionSignal{
		Label: ClassifyTime(surgeRatio, period),
		Metrics: map[string]float64{
			"surge_ratio": surgeRatio,
		},
	}
}
