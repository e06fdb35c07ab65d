package screen

import "time"

// SessionPeriod classifies intraday clock time for the persistence analyzer
// and the trap detector.
type SessionPeriod string

const (
	PeriodOpening SessionPeriod = "opening"
	PeriodNormal  SessionPeriod = "normal"
	PeriodClosing SessionPeriod = "closing"
)

// SessionPhase classifies how deep into the trading day a scan runs; it
// drives window sizing only.
type SessionPhase string

const (
	PhaseEarly SessionPhase = "early"
	PhaseMid   SessionPhase = "mid"
	PhaseLate  SessionPhase = "late"
)

// Trading day boundaries, minutes since midnight local exchange time.
const (
	sessionOpenMin  = 9*60 + 30  // 09:30
	sessionCloseMin = 15 * 60    // 15:00
	openingEndMin   = 10 * 60    // 09:30-10:00 is the opening auction drift
	closingStartMin = 14*60 + 30 // final 30 minutes
	earlyEndMin     = 10*60 + 30
	midEndMin       = 14 * 60
)

// PeriodAt maps a clock time to its session period. Times outside trading
// hours count as normal; the analyzers only see in-session bars anyway.
func PeriodAt(t time.Time) SessionPeriod {
	m := t.Hour()*60 + t.Minute()
	switch {
	case m >= sessionOpenMin && m < openingEndMin:
		return PeriodOpening
	case m >= closingStartMin && m <= sessionCloseMin:
		return PeriodClosing
	default:
		return PeriodNormal
	}
}

// PhaseAt maps a clock time to the scan phase.
func PhaseAt(t time.Time) SessionPhase {
	m := t.Hour()*60 + t.Minute()
	switch {
	case m < earlyEndMin:
		return PhaseEarly
	case m < midEndMin:
		return PhaseMid
	default:
		return PhaseLate
	}
}

// WindowBars returns the lookback window size for a scan phase. The override
// map (keys "early"/"mid"/"late") comes from configuration; zero or missing
// entries fall back to the 10/30/90 defaults.
func WindowBars(phase SessionPhase, override map[string]int) int {
	def := map[SessionPhase]int{
		PhaseEarly: 10,
		PhaseMid:   30,
		PhaseLate:  90,
	}
	if n, ok := override[string(phase)]; ok && n > 0 {
		return n
	}
	return def[phase]
}
