package screen

import "LureScan/internal/domain/models"

// Trap heuristic kinds.
const (
	TrapTailSurge    = "tail_surge"
	TrapStalledSurge = "stalled_surge"
)

const tailSurgeFactor = 2.0

// DetectTraps runs the pump-and-lure heuristics over the window and the
// already-computed quantity/price labels. A third heuristic (repeated
// limit-up then reopen) needs daily bars and is not implemented here.
func DetectTraps(w models.BarWindow, quantityLabel, priceLabel string) []models.TrapFinding {
	var findings []models.TrapFinding

	// Tail-session surge: heavy volume pushed into the close tends to lure
	// next-morning buyers into a gap-down.
	if w.Len() > 0 && PeriodAt(w.Last().Bucket) == PeriodClosing {
		vols := w.Volumes()
		recent := MeanLast(vols, 5)
		prior := MeanPrior(vols, 5)
		if prior > 0 && recent > tailSurgeFactor*prior {
			findings = append(findings, models.TrapFinding{
				Kind:        TrapTailSurge,
				Description: "tail-session pump; watch for next-day gap-down",
			})
		}
	}

	// Stalled surge: volume expands but price goes nowhere.
	quantityHot := quantityLabel == models.QuantityStrongVolume || quantityLabel == models.QuantityAbnormalSpike
	priceFlat := priceLabel == models.PriceSideways || priceLabel == models.PriceNormalFluctuation
	if quantityHot && priceFlat {
		findings = append(findings, models.TrapFinding{
			Kind:        TrapStalledSurge,
			Description: "volume surge without price confirmation",
		})
	}

	return findings
}
