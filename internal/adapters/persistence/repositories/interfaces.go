package repositories

import (
	"context"
	"time"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ListAll(ctx context.Context) ([]*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ClearExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// AccountRepository defines account repository interface
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	UpdateBalance(ctx context.Context, id string, delta float64) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]*models.Account, int64, error)
	ExistsByNumber(ctx context.Context, accountNumber string) (bool, error)
}

// LoanRepository defines loan repository interface
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	GetByID(ctx context.Context, id string) (*models.Loan, error)
	Update(ctx context.Context, loan *models.Loan) error
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, status string, offset, limit int) ([]*models.Loan, int64, error)
	ListByAccountIDs(ctx context.Context, accountIDs []string) ([]*models.Loan, error)
	ListExpired(ctx context.Context, now time.Time) ([]*models.Loan, error)
}

// RepaymentRepository defines repayment repository interface
type RepaymentRepository interface {
	Create(ctx context.Context, repayment *models.Repayment) error
	GetByID(ctx context.Context, id string) (*models.Repayment, error)
	Update(ctx context.Context, repayment *models.Repayment) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]*models.Repayment, int64, error)
	ListByLoanID(ctx context.Context, loanID string) ([]*models.Repayment, error)
}

// TransactionRepository defines transaction repository interface
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]*models.Transaction, int64, error)
	ListByAccountID(ctx context.Context, accountID string) ([]*models.Transaction, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]*models.Transaction, error)
}

// NotificationRepository defines notification repository interface
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUserID(ctx context.Context, userID string) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// SettingRepository defines setting repository interface
type SettingRepository interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	Put(ctx context.Context, key, value string) error
}
