package guardrail

import "github.com/amirasaad/spendsense/pkg/analysis"

const (
	minScore = 300
	maxScore = 850

	// veryHighUtilization maps to the lowest base score.
	veryHighUtilization = 0.90
	veryHighBaseScore   = 550

	interestPenalty       = 20
	overduePenalty        = 50
	minimumPaymentPenalty = 10
)

var bandBaseScore = map[analysis.UtilizationBand]int{
	analysis.BandExcellent: 750,
	analysis.BandLow:       700,
	analysis.BandMedium:    650,
	analysis.BandHigh:      600,
}

// EstimateCreditScore is a heuristic proxy derived from card utilization and
// repayment flags. It is not a bureau score. ok is false when r has no cards.
func EstimateCreditScore(r *analysis.CreditResult) (score int, ok bool) {
	if r == nil || r.CardCount == 0 {
		return 0, false
	}
	if r.MaxUtilization >= veryHighUtilization {
		score = veryHighBaseScore
	} else {
		score = bandBaseScore[analysis.BandFor(r.MaxUtilization)]
	}
	if r.AnyInterestCharges {
		score -= interestPenalty
	}
	if r.AnyOverdue {
		score -= overduePenalty
	}
	if r.AnyMinimumPaymentOnly {
		score -= minimumPaymentPenalty
	}
	return min(max(score, minScore), maxScore), true
}
