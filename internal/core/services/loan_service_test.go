package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/models"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/repositories"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalOwedSimpleInterest(t *testing.T) {
	// 10000 at 12% over 12 months: 10000 + 10000*0.12*1 = 11200
	assert.Equal(t, 11200.0, TotalOwed(10000, 12, 12))

	// 5000 at 10% over 6 months: 5000 + 5000*0.10*0.5 = 5250
	assert.Equal(t, 5250.0, TotalOwed(5000, 10, 6))

	// Zero rate degrades to the principal
	assert.Equal(t, 7500.0, TotalOwed(7500, 0, 24))
}

func TestPrincipalInvertsTotalOwed(t *testing.T) {
	loan := &models.Loan{
		Amount:          TotalOwed(10000, 12, 12),
		InterestRate:    12,
		RepaymentPeriod: 12,
	}
	assert.InDelta(t, 10000, Principal(loan), 0.01)
}

func TestMonthlyPayment(t *testing.T) {
	// Standard amortization: 10000 at 12% over 12 months is 888.49
	assert.InDelta(t, 888.49, MonthlyPayment(10000, 12, 12), 0.01)

	// Zero rate splits evenly
	assert.Equal(t, 100.0, MonthlyPayment(1200, 0, 12))

	// Degenerate term
	assert.Equal(t, 0.0, MonthlyPayment(1000, 12, 0))
}

func TestValidLoanStatus(t *testing.T) {
	for _, status := range []string{"pending", "approved", "rejected", "active", "paid", "overdue"} {
		assert.True(t, validLoanStatus(status), status)
	}
	assert.False(t, validLoanStatus("cancelled"))
	assert.False(t, validLoanStatus(""))
}

// stubLoanRepo serves a single loan and records the status filter
// passed to List and the last UpdateFields call
type stubLoanRepo struct {
	lastStatus string
	lastOffset int
	lastLimit  int
	loans      []*models.Loan
	total      int64

	loan          *models.Loan
	updatedFields map[string]interface{}
}

func (s *stubLoanRepo) Create(context.Context, *models.Loan) error { return nil }
func (s *stubLoanRepo) GetByID(context.Context, string) (*models.Loan, error) {
	if s.loan == nil {
		return nil, domain.ErrLoanNotFound
	}
	return s.loan, nil
}
func (s *stubLoanRepo) Update(context.Context, *models.Loan) error { return nil }
func (s *stubLoanRepo) UpdateFields(_ context.Context, _ string, fields map[string]interface{}) error {
	s.updatedFields = fields
	if status, ok := fields["loan_status"].(string); ok && s.loan != nil {
		s.loan.LoanStatus = status
	}
	return nil
}
func (s *stubLoanRepo) Delete(context.Context, string) error { return nil }
func (s *stubLoanRepo) List(_ context.Context, status string, offset, limit int) ([]*models.Loan, int64, error) {
	s.lastStatus = status
	s.lastOffset = offset
	s.lastLimit = limit
	return s.loans, s.total, nil
}
func (s *stubLoanRepo) ListByAccountIDs(context.Context, []string) ([]*models.Loan, error) {
	return s.loans, nil
}
func (s *stubLoanRepo) ListExpired(context.Context, time.Time) ([]*models.Loan, error) {
	return nil, nil
}

func TestLoanListPassesStatusFilter(t *testing.T) {
	repo := &stubLoanRepo{
		loans: []*models.Loan{{ID: "l1", LoanStatus: models.LoanStatusPending}},
		total: 7,
	}
	svc := NewLoanService(repo, nil, nil, nil)

	loans, total, err := svc.List(context.Background(), "pending", 20, 10)
	require.NoError(t, err)
	assert.Equal(t, "pending", repo.lastStatus)
	assert.Equal(t, 20, repo.lastOffset)
	assert.Equal(t, 10, repo.lastLimit)
	assert.Len(t, loans, 1)
	assert.Equal(t, int64(7), total)
}

func TestLoanListRejectsUnknownStatus(t *testing.T) {
	svc := NewLoanService(&stubLoanRepo{}, nil, nil, nil)

	_, _, err := svc.List(context.Background(), "bogus", 0, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidLoanStatus)
}

func TestLoanListEmptyStatusMeansNoFilter(t *testing.T) {
	repo := &stubLoanRepo{}
	svc := NewLoanService(repo, nil, nil, nil)

	_, _, err := svc.List(context.Background(), "", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, "", repo.lastStatus)
}

// stubAccountRepo serves accounts by ID and records balance deltas
type stubAccountRepo struct {
	accounts map[string]*models.Account
	deltas   map[string]float64
}

func (s *stubAccountRepo) Create(context.Context, *models.Account) error { return nil }
func (s *stubAccountRepo) GetByID(_ context.Context, id string) (*models.Account, error) {
	if a, ok := s.accounts[id]; ok {
		return a, nil
	}
	return nil, domain.ErrAccountNotFound
}
func (s *stubAccountRepo) GetByNumber(_ context.Context, number string) (*models.Account, error) {
	for _, a := range s.accounts {
		if a.AccountNumber == number {
			return a, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}
func (s *stubAccountRepo) GetByUserID(_ context.Context, userID string) ([]*models.Account, error) {
	var out []*models.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}
func (s *stubAccountRepo) Update(context.Context, *models.Account) error { return nil }
func (s *stubAccountRepo) UpdateBalance(_ context.Context, id string, delta float64) error {
	if s.deltas == nil {
		s.deltas = map[string]float64{}
	}
	s.deltas[id] += delta
	return nil
}
func (s *stubAccountRepo) Delete(context.Context, string) error { return nil }
func (s *stubAccountRepo) List(context.Context, int, int) ([]*models.Account, int64, error) {
	return nil, 0, nil
}
func (s *stubAccountRepo) ExistsByNumber(context.Context, string) (bool, error) {
	return false, nil
}

// stubLedgerRepo records created transactions, optionally failing
type stubLedgerRepo struct {
	created   []*models.Transaction
	createErr error
}

func (s *stubLedgerRepo) Create(_ context.Context, tx *models.Transaction) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, tx)
	return nil
}
func (s *stubLedgerRepo) GetByID(context.Context, string) (*models.Transaction, error) {
	return nil, domain.ErrNotFound
}
func (s *stubLedgerRepo) Delete(context.Context, string) error { return nil }
func (s *stubLedgerRepo) List(context.Context, int, int) ([]*models.Transaction, int64, error) {
	return nil, 0, nil
}
func (s *stubLedgerRepo) ListByAccountID(context.Context, string) ([]*models.Transaction, error) {
	return nil, nil
}
func (s *stubLedgerRepo) ListByDateRange(context.Context, time.Time, time.Time) ([]*models.Transaction, error) {
	return nil, nil
}

// stubNotificationRepo records created notifications
type stubNotificationRepo struct {
	created      []*models.Notification
	markedID     string
	markedUserID string
}

func (s *stubNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	s.created = append(s.created, n)
	return nil
}
func (s *stubNotificationRepo) ListByUserID(context.Context, string) ([]*models.Notification, error) {
	return nil, nil
}
func (s *stubNotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	s.markedID = id
	s.markedUserID = userID
	return nil
}
func (s *stubNotificationRepo) MarkAllRead(context.Context, string) error { return nil }

// stubRepaymentRepo records created repayments
type stubRepaymentRepo struct {
	created []*models.Repayment
}

func (s *stubRepaymentRepo) Create(_ context.Context, r *models.Repayment) error {
	s.created = append(s.created, r)
	return nil
}
func (s *stubRepaymentRepo) GetByID(context.Context, string) (*models.Repayment, error) {
	return nil, domain.ErrRepaymentNotFound
}
func (s *stubRepaymentRepo) Update(context.Context, *models.Repayment) error { return nil }
func (s *stubRepaymentRepo) Delete(context.Context, string) error            { return nil }
func (s *stubRepaymentRepo) List(context.Context, int, int) ([]*models.Repayment, int64, error) {
	return nil, 0, nil
}
func (s *stubRepaymentRepo) ListByLoanID(context.Context, string) ([]*models.Repayment, error) {
	return nil, nil
}

// stubTransactor runs the unit against the given repos and counts calls
type stubTransactor struct {
	repos repositories.TxRepos
	calls int
}

func (s *stubTransactor) WithinTx(_ context.Context, fn func(r repositories.TxRepos) error) error {
	s.calls++
	return fn(s.repos)
}

func TestLoanGetOwned(t *testing.T) {
	loanRepo := &stubLoanRepo{loan: &models.Loan{ID: "l1", AccountID: "a1"}}
	accountRepo := &stubAccountRepo{accounts: map[string]*models.Account{
		"a1": {ID: "a1", UserID: "u1"},
	}}
	svc := NewLoanService(loanRepo, accountRepo, nil, nil)

	loan, err := svc.GetOwned(context.Background(), "l1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "l1", loan.ID)

	_, err = svc.GetOwned(context.Background(), "l1", "u2")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestApproveDisbursesInOneUnit(t *testing.T) {
	loanRepo := &stubLoanRepo{loan: &models.Loan{
		ID:              "l1",
		AccountID:       "a1",
		Amount:          TotalOwed(10000, 12, 12),
		InterestRate:    12,
		RepaymentPeriod: 12,
		LoanStatus:      models.LoanStatusPending,
	}}
	accountRepo := &stubAccountRepo{accounts: map[string]*models.Account{
		"a1": {ID: "a1", UserID: "u1"},
	}}
	ledger := &stubLedgerRepo{}
	transactor := &stubTransactor{repos: repositories.TxRepos{
		Loans:        loanRepo,
		Accounts:     accountRepo,
		Transactions: ledger,
	}}
	notifRepo := &stubNotificationRepo{}
	svc := NewLoanService(loanRepo, accountRepo, NewNotificationService(notifRepo, nil), transactor)

	loan, err := svc.Approve(context.Background(), "l1", "admin-1")
	require.NoError(t, err)

	assert.Equal(t, 1, transactor.calls)
	assert.Equal(t, models.LoanStatusActive, loan.LoanStatus)
	assert.InDelta(t, 10000, accountRepo.deltas["a1"], 0.01)
	require.Len(t, ledger.created, 1)
	assert.Equal(t, models.TxTypeLoanDisbursal, ledger.created[0].TransactionType)
}

func TestApproveLedgerFailureLeavesLoanPending(t *testing.T) {
	loanRepo := &stubLoanRepo{loan: &models.Loan{
		ID:              "l1",
		AccountID:       "a1",
		Amount:          TotalOwed(10000, 12, 12),
		InterestRate:    12,
		RepaymentPeriod: 12,
		LoanStatus:      models.LoanStatusPending,
	}}
	accountRepo := &stubAccountRepo{accounts: map[string]*models.Account{
		"a1": {ID: "a1", UserID: "u1"},
	}}
	ledger := &stubLedgerRepo{createErr: errors.New("ledger down")}
	transactor := &stubTransactor{repos: repositories.TxRepos{
		Loans:        loanRepo,
		Accounts:     accountRepo,
		Transactions: ledger,
	}}
	svc := NewLoanService(loanRepo, accountRepo, nil, transactor)

	_, err := svc.Approve(context.Background(), "l1", "admin-1")
	require.Error(t, err)

	assert.Nil(t, loanRepo.updatedFields)
	assert.Equal(t, models.LoanStatusPending, loanRepo.loan.LoanStatus)
}
