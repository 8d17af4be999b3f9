package services

import (
	"math"
	"testing"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestComputeScoreEmptyFeatures(t *testing.T) {
	// A brand-new user with no history: base + neutral loan management
	score := ComputeScore(&domain.CreditFeatures{
		DaysSinceLastTransaction: math.Inf(1),
	})

	// 300 base + 30 neutral loan mgmt + 25 zero-utilization bonus
	assert.Equal(t, 355, score.Score)
	assert.Equal(t, "Poor", score.Rating)
	assert.Equal(t, ScoreMin, score.RangeMin)
	assert.Equal(t, ScoreMax, score.RangeMax)
	assert.NotEmpty(t, score.Factors)
}

func TestComputeScoreIsDeterministic(t *testing.T) {
	f := &domain.CreditFeatures{
		AccountAgeDays:           400,
		TotalBalance:             25000,
		TransactionCount:         60,
		LoanCount:                2,
		RepaidLoans:              2,
		RepaymentRatio:           1,
		PaymentConsistency:       0.8,
		AccountUtilization:       0.1,
		DaysSinceLastTransaction: 3,
	}

	first := ComputeScore(f)
	second := ComputeScore(f)
	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Rating, second.Rating)
}

func TestComputeScoreStaysInBounds(t *testing.T) {
	// Everything maxed out must clamp at 850
	best := ComputeScore(&domain.CreditFeatures{
		AccountAgeDays:           100000,
		TotalBalance:             1e9,
		TransactionCount:         100000,
		LoanCount:                10,
		RepaidLoans:              10,
		RepaymentRatio:           1,
		PaymentConsistency:       1,
		AccountUtilization:       0,
		DaysSinceLastTransaction: 1,
	})
	assert.Equal(t, ScoreMax, best.Score)
	assert.Equal(t, "Excellent", best.Rating)

	// Everything at its worst must clamp at 300
	worst := ComputeScore(&domain.CreditFeatures{
		LoanCount:                5,
		RepaidLoans:              0,
		AccountUtilization:       1,
		OverdraftUsage:           1,
		DaysSinceLastTransaction: math.Inf(1),
	})
	assert.GreaterOrEqual(t, worst.Score, ScoreMin)
	assert.LessOrEqual(t, worst.Score, ScoreMax)
	assert.Equal(t, "Poor", worst.Rating)
}

func TestComputeScoreRepaymentIsHeaviestFactor(t *testing.T) {
	base := &domain.CreditFeatures{DaysSinceLastTransaction: math.Inf(1)}
	withRepayment := &domain.CreditFeatures{
		RepaymentRatio:           1,
		DaysSinceLastTransaction: math.Inf(1),
	}

	diff := ComputeScore(withRepayment).Score - ComputeScore(base).Score
	assert.Equal(t, 125, diff)
}

func TestComputeScoreOverdraftPenalty(t *testing.T) {
	clean := ComputeScore(&domain.CreditFeatures{DaysSinceLastTransaction: math.Inf(1)})
	inOverdraft := ComputeScore(&domain.CreditFeatures{
		OverdraftUsage:           1,
		DaysSinceLastTransaction: math.Inf(1),
	})

	assert.Equal(t, 25, clean.Score-inOverdraft.Score)
}

func TestRatingBands(t *testing.T) {
	assert.Equal(t, "Excellent", Rating(850))
	assert.Equal(t, "Excellent", Rating(750))
	assert.Equal(t, "Good", Rating(749))
	assert.Equal(t, "Good", Rating(650))
	assert.Equal(t, "Fair", Rating(649))
	assert.Equal(t, "Fair", Rating(550))
	assert.Equal(t, "Poor", Rating(549))
	assert.Equal(t, "Poor", Rating(300))
}

func TestLoanRiskLevels(t *testing.T) {
	// Excellent score, small loan against a big balance
	low := LoanRisk(840, 1000, 50000, 6)
	assert.Equal(t, "Low", low.RiskLevel)

	// Poor score, huge loan, no balance, long term
	high := LoanRisk(310, 100000, 0, 60)
	assert.Equal(t, "High", high.RiskLevel)
	assert.Greater(t, high.RiskPercent, low.RiskPercent)

	// Risk percent stays within 0..100
	assert.GreaterOrEqual(t, low.RiskPercent, 0.0)
	assert.LessOrEqual(t, high.RiskPercent, 100.0)
}

func TestLoanRiskDeterministic(t *testing.T) {
	a := LoanRisk(700, 20000, 10000, 24)
	b := LoanRisk(700, 20000, 10000, 24)
	assert.Equal(t, a.RiskPercent, b.RiskPercent)
	assert.Equal(t, a.RiskLevel, b.RiskLevel)
}
