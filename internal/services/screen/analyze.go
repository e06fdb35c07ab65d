package screen

import (
	"time"

	"LureScan/internal/domain/models"
)

// MinBars is the shortest window the full analysis accepts.
const MinBars = 20

// Analyze runs the full four-dimension pass over one symbol's window. It is a
// pure function of its inputs: an identical window always yields an identical
// result (modulo the pass timestamp supplied by the caller).
func Analyze(symbol string, w models.BarWindow, ref *models.ReferenceInfo, at time.Time) models.ScanResult {
	if w.Len() < MinBars {
		return models.ScanResult{
			Symbol:           symbol,
			Signal:           models.SignalNeutral,
			Confidence:       0,
			Reason:           "insufficient history",
			InsufficientData: true,
			Timestamp:        at,
		}
	}

	snap := models.DimensionSnapshot{
		Quantity: AnalyzeQuantity(w),
		Price:    AnalyzePrice(w),
		Space:    AnalyzeSpace(w, ref),
		Time:     AnalyzeTime(w),
	}
	traps := DetectTraps(w, snap.Quantity.Label, snap.Price.Label)
	signal, confidence, reason := Synthesize(snap, traps)

	return models.ScanResult{
		Symbol:     symbol,
		Signal:     signal,
		Confidence: confidence,
		Reason:     reason,
		Dimensions: snap,
		Traps:      traps,
		Timestamp:  at,
	}
}
