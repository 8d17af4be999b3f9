package services

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/models"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/repositories"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/domain"

	"gorm.io/gorm"
)

// LoanService handles loan application and approval business logic
type LoanService struct {
	loanRepo      repositories.LoanRepository
	accountRepo   repositories.AccountRepository
	notifications *NotificationService
	transactor    repositories.Transactor
}

// NewLoanService creates a new loan service
func NewLoanService(
	loanRepo repositories.LoanRepository,
	accountRepo repositories.AccountRepository,
	notifications *NotificationService,
	transactor repositories.Transactor,
) *LoanService {
	return &LoanService{
		loanRepo:      loanRepo,
		accountRepo:   accountRepo,
		notifications: notifications,
		transactor:    transactor,
	}
}

// ApplyLoanInput represents a loan application
type ApplyLoanInput struct {
	AccountID       string  `json:"account_id" validate:"required"`
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	InterestRate    float64 `json:"interest_rate" validate:"required,gt=0,lte=100"`
	RepaymentPeriod int     `json:"repayment_period" validate:"required,min=1,max=360"`
	Purpose         string  `json:"purpose" validate:"omitempty,max=2000"`
}

// UpdateLoanInput represents updates to a pending loan
type UpdateLoanInput struct {
	Amount          *float64 `json:"amount" validate:"omitempty,gt=0"`
	RepaymentPeriod *int     `json:"repayment_period" validate:"omitempty,min=1,max=360"`
	Purpose         *string  `json:"purpose" validate:"omitempty,max=2000"`
}

// TotalOwed computes the total to repay: principal plus simple
// interest over the term in years (months / 12).
func TotalOwed(principal, annualRate float64, months int) float64 {
	interest := principal * (annualRate / 100) * (float64(months) / 12)
	return round2(principal + interest)
}

// loanEndDate marks the loan term as 30-day months from now
func loanEndDate(months int) time.Time {
	return time.Now().Add(time.Duration(months) * 30 * 24 * time.Hour)
}

// Apply submits a loan application against an account. The stored
// amount is the full total owed; the end date spans the term.
func (s *LoanService) Apply(ctx context.Context, userID string, input *ApplyLoanInput) (*models.Loan, error) {
	// 1. The account must exist and belong to the applicant
	account, err := s.accountRepo.GetByID(ctx, input.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	if account.UserID != userID {
		return nil, domain.ErrForbidden
	}
	if account.Status != models.AccountStatusActive {
		return nil, domain.ErrAccountInactive
	}

	// 2. Create the pending loan
	endDate := loanEndDate(input.RepaymentPeriod)
	loan := &models.Loan{
		AccountID:       input.AccountID,
		Amount:          TotalOwed(input.Amount, input.InterestRate, input.RepaymentPeriod),
		InterestRate:    input.InterestRate,
		LoanStatus:      models.LoanStatusPending,
		RepaymentPeriod: input.RepaymentPeriod,
		Purpose:         input.Purpose,
		EndDate:         &endDate,
		AdminID:         userID,
	}

	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, err
	}

	s.notifications.NotifyLoanApplied(ctx, loan, userID)

	log.Printf("✅ Loan application %s for %.2f (account %s)", loan.ID, loan.Amount, account.AccountNumber)
	return loan, nil
}

// GetByID returns a loan with its repayments
func (s *LoanService) GetByID(ctx context.Context, id string) (*models.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// GetOwned returns the loan only when the caller owns the borrowing
// account. Admin reads go through GetByID instead.
func (s *LoanService) GetOwned(ctx context.Context, id, userID string) (*models.Loan, error) {
	loan, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByID(ctx, loan.AccountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return loan, nil
}

// List returns a page of loans, optionally filtered by status
func (s *LoanService) List(ctx context.Context, status string, offset, limit int) ([]*models.Loan, int64, error) {
	if status != "" && !validLoanStatus(status) {
		return nil, 0, domain.ErrInvalidLoanStatus
	}
	return s.loanRepo.List(ctx, status, offset, limit)
}

// ListByUser returns all loans across the user's accounts
func (s *LoanService) ListByUser(ctx context.Context, userID string) ([]*models.Loan, error) {
	accounts, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	if len(ids) == 0 {
		return []*models.Loan{}, nil
	}
	return s.loanRepo.ListByAccountIDs(ctx, ids)
}

// ListRepayable returns the user's loans open for repayment: active
// status AND a positive remaining balance.
func (s *LoanService) ListRepayable(ctx context.Context, userID string) ([]*models.Loan, error) {
	loans, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	repayable := make([]*models.Loan, 0, len(loans))
	for _, loan := range loans {
		if loan.LoanStatus == models.LoanStatusActive && RemainingBalance(loan) > 0 {
			repayable = append(repayable, loan)
		}
	}
	return repayable, nil
}

// Update edits a loan while it is still pending
func (s *LoanService) Update(ctx context.Context, id string, input *UpdateLoanInput) (*models.Loan, error) {
	loan, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loan.LoanStatus != models.LoanStatusPending {
		return nil, domain.ErrInvalidLoanStatus
	}

	if input.Amount != nil {
		loan.Amount = TotalOwed(*input.Amount, loan.InterestRate, loan.RepaymentPeriod)
	}
	if input.RepaymentPeriod != nil {
		loan.RepaymentPeriod = *input.RepaymentPeriod
		endDate := loanEndDate(*input.RepaymentPeriod)
		loan.EndDate = &endDate
	}
	if input.Purpose != nil {
		loan.Purpose = *input.Purpose
	}

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// Delete removes a pending loan application
func (s *LoanService) Delete(ctx context.Context, id string) error {
	loan, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if loan.LoanStatus != models.LoanStatusPending {
		return domain.ErrInvalidLoanStatus
	}
	return s.loanRepo.Delete(ctx, id)
}

// Approve activates a pending loan and disburses the principal to the
// borrowing account.
func (s *LoanService) Approve(ctx context.Context, id, adminID string) (*models.Loan, error) {
	loan, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 1. Only pending loans can be approved
	if loan.LoanStatus != models.LoanStatusPending {
		return nil, domain.ErrInvalidLoanStatus
	}

	account, err := s.accountRepo.GetByID(ctx, loan.AccountID)
	if err != nil {
		return nil, err
	}

	// 2. Disburse the principal and activate the loan in one unit: the
	// stored amount includes interest, the borrower receives the
	// principal portion, and the term restarts from approval.
	principal := Principal(loan)
	endDate := loanEndDate(loan.RepaymentPeriod)
	err = s.transactor.WithinTx(ctx, func(r repositories.TxRepos) error {
		if err := r.Accounts.UpdateBalance(ctx, loan.AccountID, principal); err != nil {
			return err
		}

		tx := &models.Transaction{
			AccountID:       loan.AccountID,
			Amount:          principal,
			TransactionType: models.TxTypeLoanDisbursal,
			Description:     "Loan disbursal",
		}
		if err := r.Transactions.Create(ctx, tx); err != nil {
			return err
		}

		return r.Loans.UpdateFields(ctx, id, map[string]interface{}{
			"loan_status": models.LoanStatusActive,
			"admin_id":    adminID,
			"end_date":    endDate,
		})
	})
	if err != nil {
		return nil, err
	}

	loan, err = s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notifications.NotifyLoanDecision(ctx, loan, account.UserID)

	log.Printf("✅ Loan %s approved by %s, disbursed %.2f", id, adminID, principal)
	return loan, nil
}

// Reject declines a pending loan with a reason
func (s *LoanService) Reject(ctx context.Context, id, adminID, reason string) (*models.Loan, error) {
	loan, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loan.LoanStatus != models.LoanStatusPending {
		return nil, domain.ErrInvalidLoanStatus
	}

	if err := s.loanRepo.UpdateFields(ctx, id, map[string]interface{}{
		"loan_status":      models.LoanStatusRejected,
		"admin_id":         adminID,
		"rejection_reason": reason,
	}); err != nil {
		return nil, err
	}

	loan, err = s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByID(ctx, loan.AccountID)
	if err == nil {
		s.notifications.NotifyLoanDecision(ctx, loan, account.UserID)
	}

	log.Printf("✅ Loan %s rejected by %s", id, adminID)
	return loan, nil
}

// ScheduleRow is one month of an amortized repayment plan
type ScheduleRow struct {
	Month     int       `json:"month"`
	DueDate   time.Time `json:"due_date"`
	Payment   float64   `json:"payment"`
	Principal float64   `json:"principal"`
	Interest  float64   `json:"interest"`
	Balance   float64   `json:"balance"`
}

// RepaymentSchedule amortizes the total owed over the loan term
func (s *LoanService) RepaymentSchedule(ctx context.Context, id string) ([]ScheduleRow, error) {
	loan, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	payment := MonthlyPayment(loan.Amount, loan.InterestRate, loan.RepaymentPeriod)
	monthlyRate := loan.InterestRate / 100 / 12
	balance := loan.Amount
	start := loan.CreatedAt

	rows := make([]ScheduleRow, 0, loan.RepaymentPeriod)
	for m := 1; m <= loan.RepaymentPeriod; m++ {
		interest := round2(balance * monthlyRate)
		principal := round2(payment - interest)
		balance = round2(balance - principal)
		if m == loan.RepaymentPeriod && balance != 0 {
			// Fold rounding drift into the final installment
			principal = round2(principal + balance)
			balance = 0
		}
		rows = append(rows, ScheduleRow{
			Month:     m,
			DueDate:   start.Add(time.Duration(m) * 30 * 24 * time.Hour),
			Payment:   round2(principal + interest),
			Principal: principal,
			Interest:  interest,
			Balance:   balance,
		})
	}
	return rows, nil
}

// MonthlyPayment computes the standard amortized installment
// P*r*(1+r)^n / ((1+r)^n - 1). A zero rate degrades to P/n.
func MonthlyPayment(principal, annualRate float64, months int) float64 {
	if months <= 0 {
		return 0
	}
	r := annualRate / 100 / 12
	if r == 0 {
		return round2(principal / float64(months))
	}
	factor := math.Pow(1+r, float64(months))
	return round2(principal * r * factor / (factor - 1))
}

// Principal recovers the principal portion from the stored total
func Principal(loan *models.Loan) float64 {
	years := float64(loan.RepaymentPeriod) / 12
	return round2(loan.Amount / (1 + loan.InterestRate/100*years))
}

func validLoanStatus(status string) bool {
	switch status {
	case models.LoanStatusPending, models.LoanStatusApproved, models.LoanStatusRejected,
		models.LoanStatusActive, models.LoanStatusPaid, models.LoanStatusOverdue:
		return true
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
