package services

import (
	"context"
	"errors"
	"log"
	"math"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/models"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/repositories"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/domain"

	"gorm.io/gorm"
)

// RepaymentService handles loan repayment business logic
type RepaymentService struct {
	repaymentRepo repositories.RepaymentRepository
	loanRepo      repositories.LoanRepository
	accountRepo   repositories.AccountRepository
	notifications *NotificationService
	transactor    repositories.Transactor
}

// NewRepaymentService creates a new repayment service
func NewRepaymentService(
	repaymentRepo repositories.RepaymentRepository,
	loanRepo repositories.LoanRepository,
	accountRepo repositories.AccountRepository,
	notifications *NotificationService,
	transactor repositories.Transactor,
) *RepaymentService {
	return &RepaymentService{
		repaymentRepo: repaymentRepo,
		loanRepo:      loanRepo,
		accountRepo:   accountRepo,
		notifications: notifications,
		transactor:    transactor,
	}
}

// MakePaymentInput represents a loan payment
type MakePaymentInput struct {
	LoanID        string  `json:"loan_id" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" validate:"omitempty,max=50"`
	Description   string  `json:"description" validate:"omitempty,max=255"`
}

// TotalPaid sums the absolute value of the loan's repayment debits
func TotalPaid(repayments []models.Repayment) float64 {
	var total float64
	for _, r := range repayments {
		total += math.Abs(r.Amount)
	}
	return round2(total)
}

// RemainingBalance is the total owed minus everything repaid so far
func RemainingBalance(loan *models.Loan) float64 {
	return round2(loan.Amount - TotalPaid(loan.Repayments))
}

// MakePayment debits the borrowing account, records the repayment as a
// negative debit, and marks the loan paid when the balance reaches zero.
func (s *RepaymentService) MakePayment(ctx context.Context, userID string, input *MakePaymentInput) (*models.Repayment, error) {
	// 1. The loan must exist and be open for repayment
	loan, err := s.loanRepo.GetByID(ctx, input.LoanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	if loan.LoanStatus != models.LoanStatusActive && loan.LoanStatus != models.LoanStatusOverdue {
		return nil, domain.ErrLoanNotRepayable
	}

	remaining := RemainingBalance(loan)
	if remaining <= 0 {
		return nil, domain.ErrLoanNotRepayable
	}

	// 2. The borrowing account must belong to the caller
	account, err := s.accountRepo.GetByID(ctx, loan.AccountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, domain.ErrForbidden
	}

	// 3. Cap the payment at the remaining balance
	amount := input.Amount
	if amount > remaining {
		amount = remaining
	}
	if account.Balance-amount < -account.OverdraftLimit {
		return nil, domain.ErrInsufficientFunds
	}

	// 4. Debit, record the repayment with its ledger entry, and close the
	// loan when fully repaid. One transaction so a partial write cannot
	// leave the account debited without a repayment row.
	fullyRepaid := round2(remaining-amount) <= 0
	repayment := &models.Repayment{
		LoanID:        loan.ID,
		Amount:        -amount,
		Status:        models.RepaymentStatusCompleted,
		PaymentMethod: input.PaymentMethod,
		Description:   input.Description,
	}
	err = s.transactor.WithinTx(ctx, func(r repositories.TxRepos) error {
		if err := r.Accounts.UpdateBalance(ctx, loan.AccountID, -amount); err != nil {
			return err
		}
		if err := r.Repayments.Create(ctx, repayment); err != nil {
			return err
		}
		tx := &models.Transaction{
			AccountID:       loan.AccountID,
			RepaymentID:     &repayment.ID,
			Amount:          -amount,
			TransactionType: models.TxTypeLoanRepayment,
			Description:     "Loan repayment",
		}
		if err := r.Transactions.Create(ctx, tx); err != nil {
			return err
		}
		if fullyRepaid {
			return r.Loans.UpdateFields(ctx, loan.ID, map[string]interface{}{
				"loan_status": models.LoanStatusPaid,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if fullyRepaid {
		s.notifications.Notify(ctx, userID, "Congratulations! Your loan has been fully repaid.")
	}

	log.Printf("✅ Repayment of %.2f on loan %s", amount, loan.ID)
	return repayment, nil
}

// GetByID returns a repayment
func (s *RepaymentService) GetByID(ctx context.Context, id string) (*models.Repayment, error) {
	repayment, err := s.repaymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRepaymentNotFound
		}
		return nil, err
	}
	return repayment, nil
}

// List returns a page of repayments (admin)
func (s *RepaymentService) List(ctx context.Context, offset, limit int) ([]*models.Repayment, int64, error) {
	return s.repaymentRepo.List(ctx, offset, limit)
}

// ListByLoan returns a loan's repayment history. Non-admin callers only
// see loans borrowed by one of their own accounts.
func (s *RepaymentService) ListByLoan(ctx context.Context, loanID, userID string, admin bool) ([]*models.Repayment, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	if !admin {
		if err := s.checkLoanOwner(ctx, loan, userID); err != nil {
			return nil, err
		}
	}
	return s.repaymentRepo.ListByLoanID(ctx, loanID)
}

// checkLoanOwner rejects callers who do not own the borrowing account
func (s *RepaymentService) checkLoanOwner(ctx context.Context, loan *models.Loan, userID string) error {
	account, err := s.accountRepo.GetByID(ctx, loan.AccountID)
	if err != nil {
		return err
	}
	if account.UserID != userID {
		return domain.ErrForbidden
	}
	return nil
}

// LoanSummary summarizes repayment progress on a loan
type LoanSummary struct {
	LoanID           string  `json:"loan_id"`
	TotalOwed        float64 `json:"total_owed"`
	TotalPaid        float64 `json:"total_paid"`
	RemainingBalance float64 `json:"remaining_balance"`
	MonthlyPayment   float64 `json:"monthly_payment"`
	Status           string  `json:"status"`
}

// Summary builds the repayment progress view of a loan. Non-admin
// callers only see their own loans.
func (s *RepaymentService) Summary(ctx context.Context, loanID, userID string, admin bool) (*LoanSummary, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	if !admin {
		if err := s.checkLoanOwner(ctx, loan, userID); err != nil {
			return nil, err
		}
	}

	return &LoanSummary{
		LoanID:           loan.ID,
		TotalOwed:        loan.Amount,
		TotalPaid:        TotalPaid(loan.Repayments),
		RemainingBalance: RemainingBalance(loan),
		MonthlyPayment:   MonthlyPayment(loan.Amount, loan.InterestRate, loan.RepaymentPeriod),
		Status:           loan.LoanStatus,
	}, nil
}
