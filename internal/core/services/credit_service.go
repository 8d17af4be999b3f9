package services

import (
	"context"
	"math"
	"time"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/models"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/repositories"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/domain"
)

// Score bounds
const (
	ScoreMin = 300
	ScoreMax = 850
)

// CreditService computes rule-based credit scores from account
// activity. Plain arithmetic over ledger features; no model inference.
type CreditService struct {
	accountRepo repositories.AccountRepository
	loanRepo    repositories.LoanRepository
	txRepo      repositories.TransactionRepository
	userRepo    repositories.UserRepository
}

// NewCreditService creates a new credit service
func NewCreditService(
	accountRepo repositories.AccountRepository,
	loanRepo repositories.LoanRepository,
	txRepo repositories.TransactionRepository,
	userRepo repositories.UserRepository,
) *CreditService {
	return &CreditService{
		accountRepo: accountRepo,
		loanRepo:    loanRepo,
		txRepo:      txRepo,
		userRepo:    userRepo,
	}
}

// ScoreForUser gathers the user's features and scores them
func (s *CreditService) ScoreForUser(ctx context.Context, userID string) (*domain.CreditScore, error) {
	features, err := s.featuresForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	score := ComputeScore(features)
	return score, nil
}

// featuresForUser derives scoring features from the user's ledger
func (s *CreditService) featuresForUser(ctx context.Context, userID string) (*domain.CreditFeatures, error) {
	accounts, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return &domain.CreditFeatures{DaysSinceLastTransaction: math.Inf(1)}, nil
	}

	f := &domain.CreditFeatures{DaysSinceLastTransaction: math.Inf(1)}

	oldest := accounts[0].CreatedAt
	accountIDs := make([]string, 0, len(accounts))
	var overdraftCapacity float64
	for _, a := range accounts {
		accountIDs = append(accountIDs, a.ID)
		f.TotalBalance += a.Balance
		overdraftCapacity += a.OverdraftLimit
		if a.CreatedAt.Before(oldest) {
			oldest = a.CreatedAt
		}
	}
	f.AccountAgeDays = time.Since(oldest).Hours() / 24

	// Transaction activity
	var lastTx time.Time
	monthsSeen := map[string]bool{}
	for _, id := range accountIDs {
		txs, err := s.txRepo.ListByAccountID(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, tx := range txs {
			f.TransactionCount++
			switch tx.TransactionType {
			case models.TxTypeDeposit, models.TxTypeTransferIn:
				f.DepositCount++
			case models.TxTypeWithdrawal, models.TxTypeTransferOut:
				f.WithdrawalCount++
			}
			monthsSeen[tx.CreatedAt.Format("2006-01")] = true
			if tx.CreatedAt.After(lastTx) {
				lastTx = tx.CreatedAt
			}
		}
	}
	if !lastTx.IsZero() {
		f.DaysSinceLastTransaction = time.Since(lastTx).Hours() / 24
	}

	// Loan history
	loans, err := s.loanRepo.ListByAccountIDs(ctx, accountIDs)
	if err != nil {
		return nil, err
	}
	var totalOwed, totalPaid, outstanding float64
	for _, loan := range loans {
		switch loan.LoanStatus {
		case models.LoanStatusRejected, models.LoanStatusPending:
			continue
		}
		f.LoanCount++
		paid := TotalPaid(loan.Repayments)
		totalOwed += loan.Amount
		totalPaid += paid
		switch loan.LoanStatus {
		case models.LoanStatusPaid:
			f.RepaidLoans++
		default:
			f.OutstandingLoans++
			outstanding += loan.Amount - paid
		}
	}
	if totalOwed > 0 {
		f.RepaymentRatio = clamp01(totalPaid / totalOwed)
	}

	// Payment consistency: share of months since the first account
	// opened that saw any activity
	ageMonths := math.Max(1, f.AccountAgeDays/30)
	f.PaymentConsistency = clamp01(float64(len(monthsSeen)) / ageMonths)

	// Utilization: outstanding debt against available funds
	if f.TotalBalance+outstanding > 0 {
		f.AccountUtilization = clamp01(outstanding / (f.TotalBalance + outstanding))
	}

	// Overdraft usage: how deep the balance sits in overdraft territory
	if f.TotalBalance < 0 && overdraftCapacity > 0 {
		f.OverdraftUsage = clamp01(-f.TotalBalance / overdraftCapacity)
	}

	return f, nil
}

// ComputeScore applies the rule-based scoring formula to features.
// Deterministic: the same features always produce the same score.
func ComputeScore(f *domain.CreditFeatures) *domain.CreditScore {
	score := float64(ScoreMin)
	factors := make([]domain.ScoreFactor, 0, 8)

	// Account age: up to 50 points at 500 days
	age := math.Min(f.AccountAgeDays/10, 50)
	score += age
	factors = append(factors, factor("Account Age", age, 50,
		"Longer account history builds trust"))

	// Balance: logarithmic, up to 75 points
	balance := 0.0
	if f.TotalBalance > 0 {
		balance = math.Min(math.Log1p(f.TotalBalance)*8, 75)
	}
	score += balance
	factors = append(factors, factor("Savings Balance", balance, 75,
		"Higher balances improve the score on a diminishing curve"))

	// Activity: half a point per transaction, up to 50
	activity := math.Min(float64(f.TransactionCount)*0.5, 50)
	score += activity
	factors = append(factors, factor("Account Activity", activity, 50,
		"Regular transactions show an active account"))

	// Repayment history: the heaviest factor, up to 125
	repayment := f.RepaymentRatio * 125
	score += repayment
	factors = append(factors, factor("Repayment History", repayment, 125,
		"Share of borrowed money already repaid"))

	// Loan management: repaid loans out of all loans, up to 75.
	// No loan history at all earns a neutral 30.
	var loanMgmt float64
	if f.LoanCount > 0 {
		loanMgmt = float64(f.RepaidLoans) / float64(f.LoanCount) * 75
	} else {
		loanMgmt = 30
	}
	score += loanMgmt
	factors = append(factors, factor("Loan Management", loanMgmt, 75,
		"Fully repaid loans relative to all loans taken"))

	// Payment consistency: up to 75
	consistency := f.PaymentConsistency * 75
	score += consistency
	factors = append(factors, factor("Payment Consistency", consistency, 75,
		"Months with account activity since opening"))

	// Utilization: low utilization earns up to 25
	utilization := (1 - math.Min(f.AccountUtilization, 0.8)) * 25
	score += utilization
	factors = append(factors, factor("Credit Utilization", utilization, 25,
		"Outstanding debt relative to available funds"))

	// Overdraft penalty: up to -25
	overdraft := f.OverdraftUsage * 25
	score -= overdraft
	factors = append(factors, factor("Overdraft Usage", -overdraft, 0,
		"Living in overdraft lowers the score"))

	// Recency bonus
	var recency float64
	switch {
	case f.DaysSinceLastTransaction <= 7:
		recency = 10
	case f.DaysSinceLastTransaction <= 30:
		recency = 5
	}
	score += recency
	factors = append(factors, factor("Recent Activity", recency, 10,
		"Recent transactions earn a small bonus"))

	final := int(math.Round(math.Min(math.Max(score, ScoreMin), ScoreMax)))

	return &domain.CreditScore{
		Score:      final,
		Rating:     Rating(final),
		RangeMin:   ScoreMin,
		RangeMax:   ScoreMax,
		Factors:    factors,
		ComputedAt: time.Now(),
	}
}

// Rating maps a score to its display band
func Rating(score int) string {
	switch {
	case score >= 750:
		return "Excellent"
	case score >= 650:
		return "Good"
	case score >= 550:
		return "Fair"
	default:
		return "Poor"
	}
}

// LoanRisk computes the admin-facing risk heuristic for a loan
// application: a weighted sum over the applicant's credit score, the
// loan-to-balance ratio, the amount and the term. Display only.
func LoanRisk(creditScore int, loanAmount, accountBalance float64, termMonths int) *domain.RiskAssessment {
	// Score component: the further below the maximum, the riskier (40%)
	scoreRisk := float64(ScoreMax-creditScore) / float64(ScoreMax-ScoreMin)

	// Loan-to-balance ratio (30%)
	ratio := 1.0
	if accountBalance > 0 {
		ratio = clamp01(loanAmount / (accountBalance * 5))
	}

	// Absolute amount, saturating at 100k (20%)
	amountRisk := clamp01(loanAmount / 100000)

	// Term length, saturating at 5 years (10%)
	termRisk := clamp01(float64(termMonths) / 60)

	percent := math.Round((scoreRisk*0.4+ratio*0.3+amountRisk*0.2+termRisk*0.1) * 1000) / 10

	level := "Low"
	switch {
	case percent >= 70:
		level = "High"
	case percent >= 40:
		level = "Medium"
	}

	return &domain.RiskAssessment{
		RiskPercent: percent,
		RiskLevel:   level,
	}
}

// AdminOverview aggregates score statistics across all users
type AdminOverview struct {
	UserCount    int            `json:"user_count"`
	AverageScore int            `json:"average_score"`
	MinScore     int            `json:"min_score"`
	MaxScore     int            `json:"max_score"`
	Distribution map[string]int `json:"distribution"`
}

// Overview scores every user and aggregates the results (admin)
func (s *CreditService) Overview(ctx context.Context) (*AdminOverview, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	overview := &AdminOverview{
		MinScore:     ScoreMax,
		Distribution: map[string]int{"Excellent": 0, "Good": 0, "Fair": 0, "Poor": 0},
	}

	var sum int
	for _, u := range users {
		if u.Admin {
			continue
		}
		score, err := s.ScoreForUser(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		overview.UserCount++
		sum += score.Score
		if score.Score < overview.MinScore {
			overview.MinScore = score.Score
		}
		if score.Score > overview.MaxScore {
			overview.MaxScore = score.Score
		}
		overview.Distribution[score.Rating]++
	}

	if overview.UserCount > 0 {
		overview.AverageScore = sum / overview.UserCount
	} else {
		overview.MinScore = 0
	}
	return overview, nil
}

// factor builds one row of the factor breakdown
func factor(name string, points float64, max int, description string) domain.ScoreFactor {
	impact := "neutral"
	status := "fair"
	switch {
	case points < 0:
		impact = "negative"
		status = "poor"
	case max > 0 && points >= float64(max)*0.7:
		impact = "positive"
		status = "good"
	case points > 0:
		impact = "positive"
	}
	return domain.ScoreFactor{
		Name:        name,
		Status:      status,
		Impact:      impact,
		Description: description,
		ScoreImpact: int(math.Round(points)),
	}
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
