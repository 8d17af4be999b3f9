package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID            string         `gorm:"primaryKey;size:60" json:"id"`
	Username      string         `gorm:"uniqueIndex;size:80;not null" json:"username"`
	Email         string         `gorm:"uniqueIndex;size:120;not null" json:"email"`
	Password      string         `gorm:"size:128;not null" json:"-"`
	Fullname      string         `gorm:"size:120" json:"fullname"`
	PhoneNumber   string         `gorm:"size:20" json:"phone_number"`
	Bio           string         `gorm:"type:text" json:"bio,omitempty"`
	Admin         bool           `gorm:"default:false" json:"admin"`
	IsVerified    bool           `gorm:"default:false" json:"is_verified"`
	FaydaDocument string         `gorm:"size:255" json:"-"`
	// Durable fallback channel of the session store. Redis is authoritative;
	// these columns let a session survive a cache flush (read-repaired).
	SessionID        *string        `gorm:"size:250;index" json:"-"`
	SessionExpiresAt *time.Time     `json:"-"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// Role returns the wire-level role string derived from the admin flag.
// Role is never stored independently of the user record.
func (u *User) Role() string {
	if u.Admin {
		return "admin"
	}
	return "user"
}

// UserResponse DTO
type UserResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Fullname    string    `json:"fullname"`
	PhoneNumber string    `json:"phone_number"`
	Role        string    `json:"role"`
	Admin       bool      `json:"admin"`
	IsVerified  bool      `json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Fullname:    u.Fullname,
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role(),
		Admin:       u.Admin,
		IsVerified:  u.IsVerified,
		CreatedAt:   u.CreatedAt,
	}
}

// ============================================================
// Account & Money Movement Tables
// ============================================================

// Account statuses
const (
	AccountStatusActive = "active"
	AccountStatusFrozen = "frozen"
	AccountStatusClosed = "closed"
)

// Account represents accounts table (savings accounts)
type Account struct {
	ID             string         `gorm:"primaryKey;size:60" json:"id"`
	UserID         string         `gorm:"size:60;not null;index" json:"user_id"`
	AccountNumber  string         `gorm:"uniqueIndex;size:20;not null" json:"account_number"`
	Balance        float64        `gorm:"type:decimal(15,2);default:0" json:"balance"`
	Type           string         `gorm:"size:50;not null" json:"type"`
	Currency       string         `gorm:"size:10;default:'ETB'" json:"currency"`
	Status         string         `gorm:"size:10;default:'active'" json:"status"`
	OverdraftLimit float64        `gorm:"type:decimal(15,2);default:0" json:"overdraft_limit"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User         *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
	Loans        []Loan        `gorm:"foreignKey:AccountID" json:"loans,omitempty"`
}

func (Account) TableName() string {
	return "accounts"
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// Loan statuses
const (
	LoanStatusPending  = "pending"
	LoanStatusApproved = "approved"
	LoanStatusRejected = "rejected"
	LoanStatusActive   = "active"
	LoanStatusPaid     = "paid"
	LoanStatusOverdue  = "overdue"
)

// Loan represents loans table. Amount stores the total owed
// (principal plus simple interest over the term).
type Loan struct {
	ID              string         `gorm:"primaryKey;size:60" json:"id"`
	AdminID         string         `gorm:"size:60;not null" json:"admin_id"`
	AccountID       string         `gorm:"size:60;not null;index" json:"account_id"`
	Amount          float64        `gorm:"type:decimal(15,2);not null" json:"amount"`
	InterestRate    float64        `gorm:"type:decimal(5,2);not null" json:"interest_rate"`
	LoanStatus      string         `gorm:"size:50;default:'pending';index" json:"loan_status"`
	RepaymentPeriod int            `gorm:"not null" json:"repayment_period"`
	Purpose         string         `gorm:"type:text" json:"purpose"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason,omitempty"`
	EndDate         *time.Time     `json:"end_date"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Account    *Account    `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Admin      *User       `gorm:"foreignKey:AdminID" json:"admin_user,omitempty"`
	Repayments []Repayment `gorm:"foreignKey:LoanID" json:"repayments,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

func (l *Loan) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

// Repayment statuses
const (
	RepaymentStatusPending   = "pending"
	RepaymentStatusCompleted = "completed"
)

// Repayment represents repayments table.
// Amounts are recorded as negative debits against the loan.
type Repayment struct {
	ID            string         `gorm:"primaryKey;size:60" json:"id"`
	LoanID        string         `gorm:"size:60;not null;index" json:"loan_id"`
	Amount        float64        `gorm:"type:decimal(15,2);not null" json:"amount"`
	Status        string         `gorm:"size:50;default:'pending'" json:"status"`
	PaymentMethod string         `gorm:"size:50" json:"payment_method"`
	Description   string         `gorm:"size:255" json:"description"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Loan *Loan `gorm:"foreignKey:LoanID" json:"loan,omitempty"`
}

func (Repayment) TableName() string {
	return "repayments"
}

func (r *Repayment) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// Transaction types
const (
	TxTypeDeposit       = "deposit"
	TxTypeWithdrawal    = "withdrawal"
	TxTypeTransferIn    = "transfer_in"
	TxTypeTransferOut   = "transfer_out"
	TxTypeLoanDisbursal = "loan_disbursal"
	TxTypeLoanRepayment = "loan_repayment"
)

// Transaction represents transactions table (account ledger)
type Transaction struct {
	ID              string    `gorm:"primaryKey;size:60" json:"id"`
	AccountID       string    `gorm:"size:60;not null;index" json:"account_id"`
	RepaymentID     *string   `gorm:"size:60" json:"repayment_id,omitempty"`
	Amount          float64   `gorm:"type:decimal(15,2);not null" json:"amount"`
	TransactionType string    `gorm:"size:50;not null;index" json:"transaction_type"`
	Description     string    `gorm:"size:255" json:"description"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`

	Account   *Account   `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Repayment *Repayment `gorm:"foreignKey:RepaymentID" json:"repayment,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// ============================================================
// Platform Tables
// ============================================================

// Notification represents notifications table
type Notification struct {
	ID        string    `gorm:"primaryKey;size:60" json:"id"`
	UserID    string    `gorm:"size:60;not null;index" json:"user_id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsRead    bool      `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

// Setting represents platform settings persisted as a JSON blob per section
type Setting struct {
	Key       string    `gorm:"primaryKey;size:50" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Account{},
		&Loan{},
		&Repayment{},
		&Transaction{},
		&Notification{},
		&Setting{},
	)
}
