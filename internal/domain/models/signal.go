package models

import "time"

// Signal is the final classification of one symbol in a scan pass.
type Signal string

const (
	SignalStrongInflow  Signal = "STRONG_INFLOW"
	SignalWeakInflow    Signal = "WEAK_INFLOW"
	SignalNeutral       Signal = "NEUTRAL"
	SignalTrapWarning   Signal = "TRAP_WARNING"
	SignalStrongOutflow Signal = "STRONG_OUTFLOW"
)

// Quantity dimension labels, in ladder precedence order.
const (
	QuantityAbnormalSpike   = "ABNORMAL_SPIKE"
	QuantityStrongVolume    = "STRONG_VOLUME"
	QuantityModerateVolume  = "MODERATE_VOLUME"
	QuantityShrinkingVolume = "SHRINKING_VOLUME"
	QuantityNormalVolume    = "NORMAL_VOLUME"
)

// Price dimension labels.
const (
	PriceViolentRise       = "VIOLENT_RISE"
	PriceSteadyRise        = "STEADY_RISE"
	PriceSideways          = "SIDEWAYS"
	PriceDecline           = "DECLINE"
	PriceNormalFluctuation = "NORMAL_FLUCTUATION"
)

// Space (turnover) dimension labels.
const (
	SpaceNoEquityData           = "NO_EQUITY_DATA"
	SpaceHighTurnoverRising     = "HIGH_TURNOVER_RISING"
	SpaceModerateTurnoverStable = "MODERATE_TURNOVER_STABLE"
	SpaceLowTurnover            = "LOW_TURNOVER"
	SpaceNormalTurnover         = "NORMAL_TURNOVER"
)

// Time persistence labels.
const (
	TimeSustainedActivity = "SUSTAINED_ACTIVITY"
	TimeTailSurge         = "TAIL_SURGE"
	TimeModerateActivity  = "MODERATE_ACTIVITY"
	TimeShortSpike        = "SHORT_SPIKE"
)

// DimensionSignal carries the raw metrics and the categorical label emitted
// by one analyzer. Created fresh per scan pass, never persisted between
// passes.
type DimensionSignal struct {
	Label   string             `json:"label"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

// DimensionSnapshot groups the four dimension signals of one symbol.
type DimensionSnapshot struct {
	Quantity DimensionSignal `json:"quantity"`
	Price    DimensionSignal `json:"price"`
	Space    DimensionSignal `json:"space"`
	Time     DimensionSignal `json:"time"`
}

// TrapFinding describes one fired trap heuristic.
type TrapFinding struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

// ScanResult is the fully analyzed outcome for one surviving symbol.
type ScanResult struct {
	Symbol           string            `json:"symbol"`
	Signal           Signal            `json:"signal"`
	Confidence       float64           `json:"confidence"`
	Reason           string            `json:"reason"`
	Dimensions       DimensionSnapshot `json:"dimensions"`
	Traps            []TrapFinding     `json:"traps,omitempty"`
	InsufficientData bool              `json:"insufficient_data,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
}

// ScanSummary carries per-pass observability counters alongside the ranked
// list.
type ScanSummary struct {
	StartedAt    time.Time          `json:"started_at"`
	Universe     int                `json:"universe"`
	Stage1Pass   int                `json:"stage1_pass"`
	Stage2Pass   int                `json:"stage2_pass"`
	Stage3Pass   int                `json:"stage3_pass"`
	Skipped      int                `json:"skipped"`
	Failed       int                `json:"failed"`
	Insufficient int                `json:"insufficient"`
	StageSeconds map[string]float64 `json:"stage_seconds"`
	Pooled       bool               `json:"pooled"`
}
