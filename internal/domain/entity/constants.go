package entity

// Status is the persisted outcome of a trust analysis
type Status string

// Invoice status values derived from the risk score
const (
	StatusApproved    Status = "approved"
	StatusNeedsReview Status = "needs_review"
	StatusFlagged     Status = "flagged"
)

// Risk thresholds: a risk score above FlaggedRiskThreshold is flagged,
// above ReviewRiskThreshold it needs review.
const (
	FlaggedRiskThreshold = 50
	ReviewRiskThreshold  = 20
)

// RiskProfile buckets suppliers for the synthetic generator
type RiskProfile string

const (
	RiskProfileLow    RiskProfile = "low"
	RiskProfileMedium RiskProfile = "medium"
	RiskProfileHigh   RiskProfile = "high"
)

// Risk event severities
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
)

// StatusForRisk derives the invoice status from a risk score
func StatusForRisk(riskScore int) Status {
	switch {
	case riskScore > FlaggedRiskThreshold:
		return StatusFlagged
	case riskScore > ReviewRiskThreshold:
		return StatusNeedsReview
	default:
		return StatusApproved
	}
}
