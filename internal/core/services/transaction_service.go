package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/models"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/repositories"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/domain"

	"gorm.io/gorm"
)

// TransactionService handles ledger queries and transfers
type TransactionService struct {
	txRepo      repositories.TransactionRepository
	accountRepo repositories.AccountRepository
	transactor  repositories.Transactor
}

// NewTransactionService creates a new transaction service
func NewTransactionService(
	txRepo repositories.TransactionRepository,
	accountRepo repositories.AccountRepository,
	transactor repositories.Transactor,
) *TransactionService {
	return &TransactionService{
		txRepo:      txRepo,
		accountRepo: accountRepo,
		transactor:  transactor,
	}
}

// TransferInput represents a transfer between two accounts. The
// destination is either an account ID or an account number.
type TransferInput struct {
	FromAccountID   string  `json:"from_account_id" validate:"required"`
	ToAccountID     string  `json:"to_account_id" validate:"required_without=ToAccountNumber"`
	ToAccountNumber string  `json:"to_account_number" validate:"omitempty,len=10"`
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	Description     string  `json:"description" validate:"omitempty,max=255"`
}

// GetByID returns a transaction
func (s *TransactionService) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return tx, nil
}

// List returns a page of all transactions (admin)
func (s *TransactionService) List(ctx context.Context, offset, limit int) ([]*models.Transaction, int64, error) {
	return s.txRepo.List(ctx, offset, limit)
}

// ListByAccount returns the ledger of one account
func (s *TransactionService) ListByAccount(ctx context.Context, accountID string) ([]*models.Transaction, error) {
	return s.txRepo.ListByAccountID(ctx, accountID)
}

// ListByDateRange returns transactions within [from, to] (admin reports)
func (s *TransactionService) ListByDateRange(ctx context.Context, from, to time.Time) ([]*models.Transaction, error) {
	if to.Before(from) {
		return nil, domain.ErrInvalidInput
	}
	return s.txRepo.ListByDateRange(ctx, from, to)
}

// Transfer moves funds between two active accounts owned by the caller
// or sent to another user's account. The debit and credit are recorded
// as paired ledger entries.
func (s *TransactionService) Transfer(ctx context.Context, userID string, input *TransferInput) error {
	// 1. Source account must belong to the caller and be active
	from, err := s.accountRepo.GetByID(ctx, input.FromAccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrAccountNotFound
		}
		return err
	}
	if from.UserID != userID {
		return domain.ErrForbidden
	}
	if from.Status != models.AccountStatusActive {
		return domain.ErrAccountInactive
	}

	// 2. Resolve the destination, by number when one is given
	var to *models.Account
	if input.ToAccountNumber != "" {
		to, err = s.accountRepo.GetByNumber(ctx, input.ToAccountNumber)
	} else {
		to, err = s.accountRepo.GetByID(ctx, input.ToAccountID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrAccountNotFound
		}
		return err
	}
	if to.ID == from.ID {
		return domain.ErrInvalidInput
	}
	if to.Status != models.AccountStatusActive {
		return domain.ErrAccountInactive
	}

	// 3. Overdraft check on the source
	if from.Balance-input.Amount < -from.OverdraftLimit {
		return domain.ErrInsufficientFunds
	}

	// 4. Move the funds and record the paired ledger entries in one
	// transaction so the debit never lands without its credit
	err = s.transactor.WithinTx(ctx, func(r repositories.TxRepos) error {
		if err := r.Accounts.UpdateBalance(ctx, from.ID, -input.Amount); err != nil {
			return err
		}
		if err := r.Accounts.UpdateBalance(ctx, to.ID, input.Amount); err != nil {
			return err
		}
		out := &models.Transaction{
			AccountID:       from.ID,
			Amount:          -input.Amount,
			TransactionType: models.TxTypeTransferOut,
			Description:     input.Description,
		}
		if err := r.Transactions.Create(ctx, out); err != nil {
			return err
		}
		in := &models.Transaction{
			AccountID:       to.ID,
			Amount:          input.Amount,
			TransactionType: models.TxTypeTransferIn,
			Description:     input.Description,
		}
		return r.Transactions.Create(ctx, in)
	})
	if err != nil {
		return err
	}

	log.Printf("✅ Transfer of %.2f from %s to %s", input.Amount, from.AccountNumber, to.AccountNumber)
	return nil
}
