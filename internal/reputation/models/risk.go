package models

// Risk scoring is derived from the report count at read time and never
// persisted, so score and label cannot drift from the ledger.

const (
	maxScore       = 100
	pointsPerEntry = 15
)

// RiskLabel is the 3-tier presentation of a score.
type RiskLabel string

const (
	RiskHigh       RiskLabel = "High Risk"
	RiskSuspicious RiskLabel = "Suspicious"
	RiskLow        RiskLabel = "Low Risk"
)

// Score maps a report count to a bounded risk score: 15 points per report,
// capped at 100.
func Score(reportCount int) int {
	if reportCount <= 0 {
		return 0
	}
	s := reportCount * pointsPerEntry
	if s > maxScore {
		return maxScore
	}
	return s
}

// LabelForScore maps a score to its tier: >=61 high, 31..60 suspicious,
// <=30 low.
func LabelForScore(score int) RiskLabel {
	switch {
	case score >= 61:
		return RiskHigh
	case score >= 31:
		return RiskSuspicious
	default:
		return RiskLow
	}
}
