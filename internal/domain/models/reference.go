package models

// ReferenceInfo is static per-symbol reference data. FloatShares is the
// freely tradable share count used as the turnover denominator; a missing
// entry is a valid state and degrades turnover math to "cannot determine".
type ReferenceInfo struct {
	Symbol      string
	FloatShares float64
}
