package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/models"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/repositories"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/domain"

	"gorm.io/gorm"
)

// AccountService handles savings account business logic
type AccountService struct {
	accountRepo repositories.AccountRepository
	txRepo      repositories.TransactionRepository
}

// NewAccountService creates a new account service
func NewAccountService(
	accountRepo repositories.AccountRepository,
	txRepo repositories.TransactionRepository,
) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		txRepo:      txRepo,
	}
}

// CreateAccountInput represents account creation input
type CreateAccountInput struct {
	UserID   string  `json:"user_id" validate:"required"`
	Type     string  `json:"type" validate:"required,oneof=savings checking"`
	Currency string  `json:"currency" validate:"omitempty,len=3"`
	Deposit  float64 `json:"deposit" validate:"omitempty,gte=0"`
}

// MoneyInput represents a deposit or withdrawal amount
type MoneyInput struct {
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description" validate:"omitempty,max=255"`
}

// Create opens a savings account with a generated account number
func (s *AccountService) Create(ctx context.Context, input *CreateAccountInput) (*models.Account, error) {
	// 1. Generate a unique account number
	number, err := s.generateAccountNumber(ctx)
	if err != nil {
		return nil, err
	}

	// 2. Create the account
	account := &models.Account{
		UserID:        input.UserID,
		AccountNumber: number,
		Type:          input.Type,
		Currency:      input.Currency,
		Balance:       input.Deposit,
		Status:        models.AccountStatusActive,
	}
	if account.Currency == "" {
		account.Currency = "ETB"
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	// 3. Record the opening deposit in the ledger
	if input.Deposit > 0 {
		tx := &models.Transaction{
			AccountID:       account.ID,
			Amount:          input.Deposit,
			TransactionType: models.TxTypeDeposit,
			Description:     "Opening deposit",
		}
		if err := s.txRepo.Create(ctx, tx); err != nil {
			return nil, err
		}
	}

	log.Printf("✅ Account created: %s for user %s", account.AccountNumber, account.UserID)
	return account, nil
}

// GetByID returns an account
func (s *AccountService) GetByID(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// GetOwned returns an account only when it belongs to the user
func (s *AccountService) GetOwned(ctx context.Context, id, userID string) (*models.Account, error) {
	account, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return account, nil
}

// ListByUser returns the user's accounts
func (s *AccountService) ListByUser(ctx context.Context, userID string) ([]*models.Account, error) {
	return s.accountRepo.GetByUserID(ctx, userID)
}

// List returns a page of all accounts (admin)
func (s *AccountService) List(ctx context.Context, offset, limit int) ([]*models.Account, int64, error) {
	return s.accountRepo.List(ctx, offset, limit)
}

// Deposit credits the account and records a ledger entry
func (s *AccountService) Deposit(ctx context.Context, accountID string, input *MoneyInput) (*models.Account, error) {
	account, err := s.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Status != models.AccountStatusActive {
		return nil, domain.ErrAccountInactive
	}

	if err := s.accountRepo.UpdateBalance(ctx, accountID, input.Amount); err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		AccountID:       accountID,
		Amount:          input.Amount,
		TransactionType: models.TxTypeDeposit,
		Description:     input.Description,
	}
	if err := s.txRepo.Create(ctx, tx); err != nil {
		return nil, err
	}

	log.Printf("✅ Deposit of %.2f to account %s", input.Amount, account.AccountNumber)
	return s.GetByID(ctx, accountID)
}

// Withdraw debits the account within its overdraft limit
func (s *AccountService) Withdraw(ctx context.Context, accountID string, input *MoneyInput) (*models.Account, error) {
	account, err := s.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Status != models.AccountStatusActive {
		return nil, domain.ErrAccountInactive
	}

	// Balance may go negative only down to the overdraft limit
	if account.Balance-input.Amount < -account.OverdraftLimit {
		return nil, domain.ErrInsufficientFunds
	}

	if err := s.accountRepo.UpdateBalance(ctx, accountID, -input.Amount); err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		AccountID:       accountID,
		Amount:          -input.Amount,
		TransactionType: models.TxTypeWithdrawal,
		Description:     input.Description,
	}
	if err := s.txRepo.Create(ctx, tx); err != nil {
		return nil, err
	}

	log.Printf("✅ Withdrawal of %.2f from account %s", input.Amount, account.AccountNumber)
	return s.GetByID(ctx, accountID)
}

// UpdateStatus freezes, reactivates or closes an account (admin)
func (s *AccountService) UpdateStatus(ctx context.Context, accountID, status string) (*models.Account, error) {
	switch status {
	case models.AccountStatusActive, models.AccountStatusFrozen, models.AccountStatusClosed:
	default:
		return nil, domain.ErrInvalidInput
	}

	account, err := s.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	account.Status = status
	if err := s.accountRepo.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Transactions returns the account ledger
func (s *AccountService) Transactions(ctx context.Context, accountID string) ([]*models.Transaction, error) {
	if _, err := s.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	return s.txRepo.ListByAccountID(ctx, accountID)
}

// generateAccountNumber produces a unique 10-digit account number
func (s *AccountService) generateAccountNumber(ctx context.Context) (string, error) {
	for i := 0; i < 5; i++ {
		number := fmt.Sprintf("10%08d", rand.Intn(100000000))
		exists, err := s.accountRepo.ExistsByNumber(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", errors.New("could not generate a unique account number")
}
