package repositories

import (
	"context"

	"gorm.io/gorm"
)

// TxRepos is the repository set bound to one database transaction
type TxRepos struct {
	Loans        LoanRepository
	Accounts     AccountRepository
	Repayments   RepaymentRepository
	Transactions TransactionRepository
}

// Transactor runs a unit of work atomically. Money flows touch several
// tables (balance, ledger, loan status); a failed write inside the
// unit rolls back everything written before it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor creates a transactor over the given connection
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTx(ctx context.Context, fn func(r TxRepos) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(TxRepos{
			Loans:        NewLoanRepository(tx),
			Accounts:     NewAccountRepository(tx),
			Repayments:   NewRepaymentRepository(tx),
			Transactions: NewTransactionRepository(tx),
		})
	})
}
