package domain

// FactorStatus is the qualitative band of a single risk factor score.
// Factor scores are risk-monotonic: higher is always worse.
type FactorStatus string

const (
	FactorGood     FactorStatus = "good"
	FactorWarning  FactorStatus = "warning"
	FactorCritical FactorStatus = "critical"
)

// FactorStatusForScore maps a 0..100 factor score onto its band.
// Boundaries: 30 is still good, 60 is still warning.
func FactorStatusForScore(score float64) FactorStatus {
	switch {
	case score <= 30:
		return FactorGood
	case score <= 60:
		return FactorWarning
	default:
		return FactorCritical
	}
}

func (s FactorStatus) String() string {
	return string(s)
}
