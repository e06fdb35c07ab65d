package screen

import (
	"reflect"
	"testing"
	"time"

	"LureScan/internal/domain/models"
)

// barWindow builds an n-bar window of 1m bars ending at end, with per-bar
// volumes supplied in order and a flat price unless closes are given.
func barWindow(end time.Time, volumes []float64, closes []float64) models.BarWindow {
	n := len(volumes)
	w := make(models.BarWindow, n)
	for i := 0; i < n; i++ {
		c := 10.0
		if closes != nil {
			c = closes[i]
		}
		w[i] = models.Bar{
			Bucket: end.Add(-time.Duration(n-1-i) * time.Minute),
			Symbol: "SH600000",
			Open:   c,
			High:   c * 1.001,
			Low:    c * 0.999,
			Close:  c,
			Volume: volumes[i],
		}
	}
	return w
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestClassifyQuantityLadder(t *testing.T) {
	cases := []struct {
		ratio, vola, trend float64
		want               string
	}{
		{3.5, 2.0, 0.1, models.QuantityAbnormalSpike},
		{3.2, 0.5, 0.4, models.QuantityStrongVolume},
		{1.8, 0.5, 0.0, models.QuantityModerateVolume},
		{0.3, 0.2, -0.4, models.QuantityShrinkingVolume},
		{1.0, 0.5, 0.0, models.QuantityNormalVolume},
	}
	for _, c := range cases {
		if got := ClassifyQuantity(c.ratio, c.vola, c.trend); got != c.want {
			t.Fatalf("ClassifyQuantity(%v,%v,%v) = %s, want %s", c.ratio, c.vola, c.trend, got, c.want)
		}
	}
}

func TestClassifyPriceLadder(t *testing.T) {
	cases := []struct {
		change, amplitude, momentum float64
		want                        string
	}{
		{0.04, 0.04, 0.0, models.PriceViolentRise},
		{0.025, 0.01, 0.015, models.PriceSteadyRise},
		{0.002, 0.01, 0.0, models.PriceSideways},
		{-0.03, 0.01, 0.0, models.PriceDecline},
		{0.01, 0.02, 0.0, models.PriceNormalFluctuation},
	}
	for _, c := range cases {
		if got := ClassifyPrice(c.change, c.amplitude, c.momentum); got != c.want {
			t.Fatalf("ClassifyPrice(%v,%v,%v) = %s, want %s", c.change, c.amplitude, c.momentum, got, c.want)
		}
	}
}

func TestClassifySpaceLadder(t *testing.T) {
	if got := ClassifySpace(0.05, 0.5, false); got != models.SpaceNoEquityData {
		t.Fatalf("missing ref must yield NO_EQUITY_DATA, got %s", got)
	}
	cases := []struct {
		turnover, trend float64
		want            string
	}{
		{0.03, 0.3, models.SpaceHighTurnoverRising},
		{0.012, 0.05, models.SpaceModerateTurnoverStable},
		{0.001, 0.0, models.SpaceLowTurnover},
		{0.018, 0.0, models.SpaceNormalTurnover},
	}
	for _, c := range cases {
		if got := ClassifySpace(c.turnover, c.trend, true); got != c.want {
			t.Fatalf("ClassifySpace(%v,%v) = %s, want %s", c.turnover, c.trend, got, c.want)
		}
	}
}

func TestClassifyTimeLadder(t *testing.T) {
	cases := []struct {
		ratio  float64
		period SessionPeriod
		want   string
	}{
		{0.8, PeriodNormal, models.TimeSustainedActivity},
		{0.6, PeriodClosing, models.TimeTailSurge},
		{0.6, PeriodNormal, models.TimeModerateActivity},
		{0.2, PeriodNormal, models.TimeShortSpike},
	}
	for _, c := range cases {
		if got := ClassifyTime(c.ratio, c.period); got != c.want {
			t.Fatalf("ClassifyTime(%v,%s) = %s, want %s", c.ratio, c.period, got, c.want)
		}
	}
}

// Scenario A from the screening rules: all four dimensions vote positive.
func TestSynthesizeStrongInflow(t *testing.T) {
	snap := models.DimensionSnapshot{
		Quantity: models.DimensionSignal{Label: ClassifyQuantity(3.2, 0.5, 0.4)},
		Price:    models.DimensionSignal{Label: ClassifyPrice(0.025, 0.01, 0.015)},
		Space:    models.DimensionSignal{Label: ClassifySpace(0.012, 0.05, true)},
		Time:     models.DimensionSignal{Label: ClassifyTime(0.6, PeriodNormal)},
	}
	signal, conf, _ := Synthesize(snap, nil)
	if signal != models.SignalStrongInflow {
		t.Fatalf("expected STRONG_INFLOW, got %s", signal)
	}
	if conf != 0.85 {
		t.Fatalf("expected confidence 0.85, got %v", conf)
	}
}

func TestSynthesizeVoteBands(t *testing.T) {
	positive := models.DimensionSnapshot{
		Quantity: models.DimensionSignal{Label: models.QuantityStrongVolume},
		Price:    models.DimensionSignal{Label: models.PriceSteadyRise},
		Space:    models.DimensionSignal{Label: models.SpaceHighTurnoverRising},
		Time:     models.DimensionSignal{Label: models.TimeSustainedActivity},
	}

	three := positive
	three.Time.Label = models.TimeShortSpike
	if sig, conf, _ := Synthesize(three, nil); sig != models.SignalWeakInflow || conf != 0.65 {
		t.Fatalf("3 votes: got %s/%v", sig, conf)
	}

	two := three
	two.Space.Label = models.SpaceLowTurnover
	if sig, conf, _ := Synthesize(two, nil); sig != models.SignalNeutral || conf != 0.4 {
		t.Fatalf("2 votes: got %s/%v", sig, conf)
	}

	none := models.DimensionSnapshot{
		Quantity: models.DimensionSignal{Label: models.QuantityNormalVolume},
		Price:    models.DimensionSignal{Label: models.PriceNormalFluctuation},
		Space:    models.DimensionSignal{Label: models.SpaceNormalTurnover},
		Time:     models.DimensionSignal{Label: models.TimeShortSpike},
	}
	if sig, conf, _ := Synthesize(none, nil); sig != models.SignalNeutral || conf != 0.3 {
		t.Fatalf("0 votes: got %s/%v", sig, conf)
	}
}

func TestSynthesizeStrongOutflow(t *testing.T) {
	snap := models.DimensionSnapshot{
		Quantity: models.DimensionSignal{Label: models.QuantityShrinkingVolume},
		Price:    models.DimensionSignal{Label: models.PriceDecline},
		Space:    models.DimensionSignal{Label: models.SpaceLowTurnover},
		Time:     models.DimensionSignal{Label: models.TimeShortSpike},
	}
	sig, conf, _ := Synthesize(snap, nil)
	if sig != models.SignalStrongOutflow || conf != 0.75 {
		t.Fatalf("expected STRONG_OUTFLOW/0.75, got %s/%v", sig, conf)
	}
}

// Scenario B: tail-session volume surge trumps dimension votes.
func TestTailSurgeTrap(t *testing.T) {
	end := time.Date(2026, 3, 2, 14, 45, 0, 0, time.Local)
	vols := append(repeat(200_000, 15), repeat(500_000, 5)...)
	w := barWindow(end, vols, nil)

	res := Analyze("SH600000", w, &models.ReferenceInfo{Symbol: "SH600000", FloatShares: 1e9}, end)
	if res.Signal != models.SignalTrapWarning {
		t.Fatalf("expected TRAP_WARNING, got %s (%s)", res.Signal, res.Reason)
	}
	if res.Confidence != 0.9 {
		t.Fatalf("expected confidence 0.9, got %v", res.Confidence)
	}
	found := false
	for _, f := range res.Traps {
		if f.Kind == TrapTailSurge {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected tail_surge finding, got %+v", res.Traps)
	}
}

// Scenario D: strong volume with sideways price fires the stalled-surge trap
// on its own.
func TestStalledSurgeTrap(t *testing.T) {
	end := time.Date(2026, 3, 2, 11, 0, 0, 0, time.Local)
	w := barWindow(end, repeat(100_000, 20), nil)

	findings := DetectTraps(w, models.QuantityStrongVolume, models.PriceSideways)
	if len(findings) != 1 || findings[0].Kind != TrapStalledSurge {
		t.Fatalf("expected stalled_surge, got %+v", findings)
	}

	// Price alone would not trap.
	if f := DetectTraps(w, models.QuantityNormalVolume, models.PriceSideways); len(f) != 0 {
		t.Fatalf("no trap expected without volume surge, got %+v", f)
	}
}

func TestTailSurgeRequiresClosingSession(t *testing.T) {
	end := time.Date(2026, 3, 2, 10, 45, 0, 0, time.Local)
	vols := append(repeat(200_000, 15), repeat(500_000, 5)...)
	w := barWindow(end, vols, nil)

	for _, f := range DetectTraps(w, models.QuantityNormalVolume, models.PriceViolentRise) {
		if f.Kind == TrapTailSurge {
			t.Fatalf("tail surge must not fire mid-session")
		}
	}
}

// Scenario C: short windows degrade to INSUFFICIENT_DATA, never panic, never
// produce a trap warning.
func TestAnalyzeInsufficientData(t *testing.T) {
	end := time.Date(2026, 3, 2, 14, 45, 0, 0, time.Local)
	w := barWindow(end, repeat(500_000, 15), nil)

	res := Analyze("SZ000001", w, nil, end)
	if !res.InsufficientData {
		t.Fatalf("expected insufficient data flag")
	}
	if res.Signal != models.SignalNeutral || res.Confidence != 0 {
		t.Fatalf("expected NEUTRAL/0, got %s/%v", res.Signal, res.Confidence)
	}
	if len(res.Traps) != 0 {
		t.Fatalf("short window must not produce trap findings")
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	end := time.Date(2026, 3, 2, 11, 0, 0, 0, time.Local)
	vols := append(repeat(100_000, 15), repeat(260_000, 5)...)
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 10.0 + 0.01*float64(i)
	}
	w := barWindow(end, vols, closes)
	ref := &models.ReferenceInfo{Symbol: "SH600000", FloatShares: 5e8}

	a := Analyze("SH600000", w, ref, end)
	b := Analyze("SH600000", w, ref, end)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("analysis not idempotent:\n%+v\n%+v", a, b)
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		t.Fatalf("confidence out of range: %v", a.Confidence)
	}
}

func TestSessionFunctions(t *testing.T) {
	local := func(h, m int) time.Time {
		return time.Date(2026, 3, 2, h, m, 0, 0, time.Local)
	}
	if p := PeriodAt(local(9, 45)); p != PeriodOpening {
		t.Fatalf("09:45 = %s, want opening", p)
	}
	if p := PeriodAt(local(11, 0)); p != PeriodNormal {
		t.Fatalf("11:00 = %s, want normal", p)
	}
	if p := PeriodAt(local(14, 45)); p != PeriodClosing {
		t.Fatalf("14:45 = %s, want closing", p)
	}

	if n := WindowBars(PhaseAt(local(9, 45)), nil); n != 10 {
		t.Fatalf("early window = %d, want 10", n)
	}
	if n := WindowBars(PhaseAt(local(11, 0)), nil); n != 30 {
		t.Fatalf("mid window = %d, want 30", n)
	}
	if n := WindowBars(PhaseAt(local(14, 30)), nil); n != 90 {
		t.Fatalf("late window = %d, want 90", n)
	}
	if n := WindowBars(PhaseEarly, map[string]int{"early": 15}); n != 15 {
		t.Fatalf("override window = %d, want 15", n)
	}
}

func TestVolumeRatio(t *testing.T) {
	end := time.Date(2026, 3, 2, 11, 0, 0, 0, time.Local)
	vols := append(repeat(100_000, 7), repeat(200_000, 3)...)
	w := barWindow(end, vols, nil)
	got := VolumeRatio(w, 3)
	if got < 1.99 || got > 2.01 {
		t.Fatalf("volume ratio = %v, want ~2.0", got)
	}
}
