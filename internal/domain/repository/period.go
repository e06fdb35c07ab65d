package repository

// Period represents bar resolution buckets.
type Period string

const (
	P1m Period = "1m"
	P5m Period = "5m"
)

// IsValidPeriod returns true if p is a supported bar period.
func IsValidPeriod(p Period) bool {
	switch p {
	case P1m, P5m:
		return true
	default:
		return false
	}
}

// DefaultPeriod returns the default bar period.
func DefaultPeriod() Period { return P1m }

// NormalizePeriod converts a raw string to a valid period (or default).
func NormalizePeriod(s string) Period {
	if s == "" {
		return DefaultPeriod()
	}
	p := Period(s)
	if IsValidPeriod(p) {
		return p
	}
	return DefaultPeriod()
}
