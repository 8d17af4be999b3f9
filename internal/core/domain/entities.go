package domain

import "time"

// DevUserPrefix marks principals synthesized by the dev login bypass.
// Dev principals live only in the cache channel and skip DB lookups.
const DevUserPrefix = "dev-user-"

// CreditFeatures are the account-activity features the scoring
// formula is computed over. All derived from the ledger, never stored.
type CreditFeatures struct {
	AccountAgeDays           float64
	TotalBalance             float64
	TransactionCount         int
	DepositCount             int
	WithdrawalCount          int
	LoanCount                int
	RepaidLoans              int
	OutstandingLoans         int
	RepaymentRatio           float64
	PaymentConsistency       float64
	AccountUtilization       float64
	OverdraftUsage           float64
	DaysSinceLastTransaction float64
}

// ScoreFactor describes one contributor to a credit score
type ScoreFactor struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Impact      string `json:"impact"`
	Description string `json:"description"`
	ScoreImpact int    `json:"score_impact"`
}

// CreditScore is a scored user with its factor breakdown
type CreditScore struct {
	Score      int           `json:"credit_score"`
	Rating     string        `json:"score_rating"`
	RangeMin   int           `json:"range_min"`
	RangeMax   int           `json:"range_max"`
	Factors    []ScoreFactor `json:"factors"`
	ComputedAt time.Time     `json:"computed_at"`
}

// RiskAssessment is the admin-facing loan risk display. A weighted
// arithmetic heuristic over already-known fields, not a credit decision.
type RiskAssessment struct {
	RiskPercent float64 `json:"risk_percent"`
	RiskLevel   string  `json:"risk_level"`
}
