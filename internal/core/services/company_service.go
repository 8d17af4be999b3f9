package services

import (
	"context"
	"time"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// CompanyService handles company balance and analytics aggregates
type CompanyService struct {
	db *gorm.DB
}

// NewCompanyService creates a new company service
func NewCompanyService(db *gorm.DB) *CompanyService {
	return &CompanyService{db: db}
}

// ============================================================
// Company Balance Overview
// ============================================================

// CompanyOverview represents the admin company balance dashboard
type CompanyOverview struct {
	// User statistics
	TotalUsers  int64 `json:"total_users"`
	TotalAdmins int64 `json:"total_admins"`

	// Account statistics
	TotalAccounts  int64   `json:"total_accounts"`
	ActiveAccounts int64   `json:"active_accounts"`
	TotalDeposits  float64 `json:"total_deposits"`

	// Loan statistics
	TotalLoans     int64   `json:"total_loans"`
	PendingLoans   int64   `json:"pending_loans"`
	ActiveLoans    int64   `json:"active_loans"`
	PaidLoans      int64   `json:"paid_loans"`
	OverdueLoans   int64   `json:"overdue_loans"`
	DisbursedTotal float64 `json:"disbursed_total"`
	RepaidTotal    float64 `json:"repaid_total"`

	// Monthly statistics
	LoansThisMonth  int64   `json:"loans_this_month"`
	AmountThisMonth float64 `json:"amount_this_month"`

	// Recent activity
	RecentLoans []LoanSnapshot `json:"recent_loans"`
}

// LoanSnapshot represents one row of recent loan activity
type LoanSnapshot struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Overview returns the company balance dashboard (admin)
func (s *CompanyService) Overview(ctx context.Context) (*CompanyOverview, error) {
	data := &CompanyOverview{}

	// User counts
	s.db.WithContext(ctx).Table("users").Where("deleted_at IS NULL").Count(&data.TotalUsers)
	s.db.WithContext(ctx).Table("users").Where("admin = ? AND deleted_at IS NULL", true).Count(&data.TotalAdmins)

	// Account counts and held funds
	s.db.WithContext(ctx).Table("accounts").Where("deleted_at IS NULL").Count(&data.TotalAccounts)
	s.db.WithContext(ctx).Table("accounts").
		Where("status = ? AND deleted_at IS NULL", models.AccountStatusActive).
		Count(&data.ActiveAccounts)
	s.db.WithContext(ctx).Table("accounts").
		Where("deleted_at IS NULL").
		Select("COALESCE(SUM(balance), 0)").
		Scan(&data.TotalDeposits)

	// Loan counts by status
	s.db.WithContext(ctx).Table("loans").Where("deleted_at IS NULL").Count(&data.TotalLoans)
	s.db.WithContext(ctx).Table("loans").
		Where("loan_status = ? AND deleted_at IS NULL", models.LoanStatusPending).Count(&data.PendingLoans)
	s.db.WithContext(ctx).Table("loans").
		Where("loan_status = ? AND deleted_at IS NULL", models.LoanStatusActive).Count(&data.ActiveLoans)
	s.db.WithContext(ctx).Table("loans").
		Where("loan_status = ? AND deleted_at IS NULL", models.LoanStatusPaid).Count(&data.PaidLoans)
	s.db.WithContext(ctx).Table("loans").
		Where("loan_status = ? AND deleted_at IS NULL", models.LoanStatusOverdue).Count(&data.OverdueLoans)

	// Disbursed and repaid money movement
	s.db.WithContext(ctx).Table("transactions").
		Where("transaction_type = ?", models.TxTypeLoanDisbursal).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&data.DisbursedTotal)
	s.db.WithContext(ctx).Table("transactions").
		Where("transaction_type = ?", models.TxTypeLoanRepayment).
		Select("COALESCE(SUM(ABS(amount)), 0)").
		Scan(&data.RepaidTotal)

	// This month
	monthStart := time.Now().AddDate(0, 0, -time.Now().Day()+1).Truncate(24 * time.Hour)
	s.db.WithContext(ctx).Table("loans").
		Where("created_at >= ? AND deleted_at IS NULL", monthStart).
		Count(&data.LoansThisMonth)
	s.db.WithContext(ctx).Table("loans").
		Where("created_at >= ? AND deleted_at IS NULL", monthStart).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&data.AmountThisMonth)

	// Recent loans
	s.db.WithContext(ctx).Table("loans").
		Where("deleted_at IS NULL").
		Select("id, account_id, amount, loan_status as status, created_at").
		Order("created_at DESC").
		Limit(10).
		Scan(&data.RecentLoans)

	return data, nil
}

// ============================================================
// Loan Analytics
// ============================================================

// MonthlyLoanStat represents loan volume for one month
type MonthlyLoanStat struct {
	Month  string  `json:"month"`
	Count  int64   `json:"count"`
	Amount float64 `json:"amount"`
}

// LoanAnalytics represents loan analytics over the trailing year
type LoanAnalytics struct {
	Monthly       []MonthlyLoanStat `json:"monthly"`
	ApprovalRate  float64           `json:"approval_rate"`
	RepaymentRate float64           `json:"repayment_rate"`
}

// Analytics returns loan analytics for admin reports
func (s *CompanyService) Analytics(ctx context.Context) (*LoanAnalytics, error) {
	data := &LoanAnalytics{}

	yearAgo := time.Now().AddDate(-1, 0, 0)
	s.db.WithContext(ctx).Table("loans").
		Where("created_at >= ? AND deleted_at IS NULL", yearAgo).
		Select("DATE_FORMAT(created_at, '%Y-%m') as month, COUNT(*) as count, COALESCE(SUM(amount), 0) as amount").
		Group("month").
		Order("month").
		Scan(&data.Monthly)

	var decided, approved int64
	s.db.WithContext(ctx).Table("loans").
		Where("loan_status <> ? AND deleted_at IS NULL", models.LoanStatusPending).
		Count(&decided)
	s.db.WithContext(ctx).Table("loans").
		Where("loan_status IN ? AND deleted_at IS NULL",
			[]string{models.LoanStatusApproved, models.LoanStatusActive, models.LoanStatusPaid, models.LoanStatusOverdue}).
		Count(&approved)
	if decided > 0 {
		data.ApprovalRate = float64(approved) / float64(decided)
	}

	var disbursedCount, paidCount int64
	s.db.WithContext(ctx).Table("loans").
		Where("loan_status IN ? AND deleted_at IS NULL",
			[]string{models.LoanStatusActive, models.LoanStatusPaid, models.LoanStatusOverdue}).
		Count(&disbursedCount)
	s.db.WithContext(ctx).Table("loans").
		Where("loan_status = ? AND deleted_at IS NULL", models.LoanStatusPaid).
		Count(&paidCount)
	if disbursedCount > 0 {
		data.RepaymentRate = float64(paidCount) / float64(disbursedCount)
	}

	return data, nil
}

// CompanySummary is the condensed balance card
type CompanySummary struct {
	HeldFunds   float64 `json:"held_funds"`
	Outstanding float64 `json:"outstanding"`
	NetPosition float64 `json:"net_position"`
}

// Summary returns the condensed company position
func (s *CompanyService) Summary(ctx context.Context) (*CompanySummary, error) {
	data := &CompanySummary{}

	s.db.WithContext(ctx).Table("accounts").
		Where("deleted_at IS NULL").
		Select("COALESCE(SUM(balance), 0)").
		Scan(&data.HeldFunds)

	var owed, repaid float64
	s.db.WithContext(ctx).Table("loans").
		Where("loan_status IN ? AND deleted_at IS NULL",
			[]string{models.LoanStatusActive, models.LoanStatusOverdue}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&owed)
	s.db.WithContext(ctx).Table("repayments").
		Joins("JOIN loans ON loans.id = repayments.loan_id").
		Where("loans.loan_status IN ? AND repayments.deleted_at IS NULL",
			[]string{models.LoanStatusActive, models.LoanStatusOverdue}).
		Select("COALESCE(SUM(ABS(repayments.amount)), 0)").
		Scan(&repaid)

	data.Outstanding = owed - repaid
	data.NetPosition = data.HeldFunds + data.Outstanding
	return data, nil
}
