package handlers

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/http/middleware"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/models"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/domain"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loanStubRepo serves one loan and records deletions
type loanStubRepo struct {
	loan    *models.Loan
	deleted string
}

func (s *loanStubRepo) Create(context.Context, *models.Loan) error { return nil }
func (s *loanStubRepo) GetByID(context.Context, string) (*models.Loan, error) {
	if s.loan == nil {
		return nil, domain.ErrLoanNotFound
	}
	return s.loan, nil
}
func (s *loanStubRepo) Update(context.Context, *models.Loan) error { return nil }
func (s *loanStubRepo) UpdateFields(context.Context, string, map[string]interface{}) error {
	return nil
}
func (s *loanStubRepo) Delete(_ context.Context, id string) error {
	s.deleted = id
	return nil
}
func (s *loanStubRepo) List(context.Context, string, int, int) ([]*models.Loan, int64, error) {
	return nil, 0, nil
}
func (s *loanStubRepo) ListByAccountIDs(context.Context, []string) ([]*models.Loan, error) {
	return nil, nil
}
func (s *loanStubRepo) ListExpired(context.Context, time.Time) ([]*models.Loan, error) {
	return nil, nil
}

// accountStubRepo serves accounts by ID
type accountStubRepo struct {
	accounts map[string]*models.Account
}

func (s *accountStubRepo) Create(context.Context, *models.Account) error { return nil }
func (s *accountStubRepo) GetByID(_ context.Context, id string) (*models.Account, error) {
	if a, ok := s.accounts[id]; ok {
		return a, nil
	}
	return nil, domain.ErrAccountNotFound
}
func (s *accountStubRepo) GetByNumber(context.Context, string) (*models.Account, error) {
	return nil, domain.ErrAccountNotFound
}
func (s *accountStubRepo) GetByUserID(context.Context, string) ([]*models.Account, error) {
	return nil, nil
}
func (s *accountStubRepo) Update(context.Context, *models.Account) error { return nil }
func (s *accountStubRepo) UpdateBalance(context.Context, string, float64) error {
	return nil
}
func (s *accountStubRepo) Delete(context.Context, string) error { return nil }
func (s *accountStubRepo) List(context.Context, int, int) ([]*models.Account, int64, error) {
	return nil, 0, nil
}
func (s *accountStubRepo) ExistsByNumber(context.Context, string) (bool, error) {
	return false, nil
}

// loanApp mounts the loan detail routes behind a caller stamped into
// the request locals, the way the auth guard would
func loanApp(loanRepo *loanStubRepo, accountRepo *accountStubRepo, userID, role string) *fiber.App {
	svc := services.NewLoanService(loanRepo, accountRepo, nil, nil)
	handler := NewLoanHandler(svc, nil, nil)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, userID)
		c.Locals(middleware.LocalRole, role)
		return c.Next()
	})
	app.Get("/api/v1/loans/:id", handler.Get)
	app.Delete("/api/v1/loans/:id", handler.Delete)
	app.Get("/api/v1/loans/:id/repayment-schedule", handler.Schedule)
	return app
}

func loanFixtures() (*loanStubRepo, *accountStubRepo) {
	loanRepo := &loanStubRepo{loan: &models.Loan{
		ID:              "l1",
		AccountID:       "a1",
		Amount:          1120,
		InterestRate:    12,
		RepaymentPeriod: 12,
		LoanStatus:      models.LoanStatusPending,
	}}
	accountRepo := &accountStubRepo{accounts: map[string]*models.Account{
		"a1": {ID: "a1", UserID: "u1"},
	}}
	return loanRepo, accountRepo
}

func TestLoanGetOwnerOnly(t *testing.T) {
	loanRepo, accountRepo := loanFixtures()

	resp, err := loanApp(loanRepo, accountRepo, "u1", "user").
		Test(httptest.NewRequest("GET", "/api/v1/loans/l1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = loanApp(loanRepo, accountRepo, "u2", "user").
		Test(httptest.NewRequest("GET", "/api/v1/loans/l1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = loanApp(loanRepo, accountRepo, "u2", "admin").
		Test(httptest.NewRequest("GET", "/api/v1/loans/l1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLoanDeleteStrangerForbidden(t *testing.T) {
	loanRepo, accountRepo := loanFixtures()

	resp, err := loanApp(loanRepo, accountRepo, "u2", "user").
		Test(httptest.NewRequest("DELETE", "/api/v1/loans/l1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Empty(t, loanRepo.deleted)

	resp, err = loanApp(loanRepo, accountRepo, "u1", "user").
		Test(httptest.NewRequest("DELETE", "/api/v1/loans/l1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "l1", loanRepo.deleted)
}

func TestLoanScheduleStrangerForbidden(t *testing.T) {
	loanRepo, accountRepo := loanFixtures()

	resp, err := loanApp(loanRepo, accountRepo, "u2", "user").
		Test(httptest.NewRequest("GET", "/api/v1/loans/l1/repayment-schedule", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
