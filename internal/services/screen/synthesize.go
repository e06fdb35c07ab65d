package screen

import (
	"fmt"
	"strings"

	"LureScan/internal/domain/models"
)

// Synthesizer confidence levels.
const (
	confTrap         = 0.9
	confStrongInflow = 0.85
	confOutflow      = 0.75
	confWeakInflow   = 0.65
	confNeutralTwo   = 0.4
	confNeutralLow   = 0.3
)

// Synthesize folds the four dimension labels and the trap findings into the
// final signal. Trap findings override everything else.
func Synthesize(snap models.DimensionSnapshot, traps []models.TrapFinding) (models.Signal, float64, string) {
	if len(traps) > 0 {
		descs := make([]string, len(traps))
		for i, t := range traps {
			descs[i] = t.Description
		}
		return models.SignalTrapWarning, confTrap, strings.Join(descs, "; ")
	}

	votes := 0
	if snap.Quantity.Label == models.QuantityStrongVolume || snap.Quantity.Label == models.QuantityModerateVolume {
		votes++
	}
	if snap.Price.Label == models.PriceSteadyRise || snap.Price.Label == models.PriceSideways {
		votes++
	}
	if snap.Space.Label == models.SpaceModerateTurnoverStable || snap.Space.Label == models.SpaceHighTurnoverRising {
		votes++
	}
	if snap.Time.Label == models.TimeSustainedActivity || snap.Time.Label == models.TimeModerateActivity {
		votes++
	}

	switch {
	case votes >= 4:
		return models.SignalStrongInflow, confStrongInflow, voteReason(votes, "all four dimensions aligned")
	case votes == 3:
		return models.SignalWeakInflow, confWeakInflow, voteReason(votes, "three dimensions aligned")
	case votes == 2:
		return models.SignalNeutral, confNeutralTwo, voteReason(votes, "mixed dimension readings")
	default:
		if snap.Quantity.Label == models.QuantityShrinkingVolume && snap.Price.Label == models.PriceDecline {
			return models.SignalStrongOutflow, confOutflow, "volume contraction on price decline"
		}
		return models.SignalNeutral, confNeutralLow, voteReason(votes, "no aligned dimensions")
	}
}

func voteReason(votes int, note string) string {
	return fmt.Sprintf("%d/4 positive votes: %s", votes, note)
}
