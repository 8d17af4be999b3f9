package repositories

import (
	"context"
	"time"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// loanRepository implements LoanRepository interface
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// Create creates a new loan
func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

// GetByID gets a loan by ID with its repayments preloaded
func (r *loanRepository) GetByID(ctx context.Context, id string) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).Preload("Repayments").Where("id = ?", id).First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// Update saves a loan record
func (r *loanRepository) Update(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Save(loan).Error
}

// UpdateFields updates selected columns only
func (r *loanRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Loan{}).Where("id = ?", id).Updates(fields).Error
}

// Delete soft deletes a loan
func (r *loanRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Loan{}).Error
}

// List lists loans with optional status filter and pagination
func (r *loanRepository) List(ctx context.Context, status string, offset, limit int) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Loan{})
	if status != "" {
		query = query.Where("loan_status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Preload("Repayments").Offset(offset).Limit(limit).Order("created_at DESC").Find(&loans).Error; err != nil {
		return nil, 0, err
	}

	return loans, total, nil
}

// ListByAccountIDs lists loans belonging to any of the given accounts
func (r *loanRepository) ListByAccountIDs(ctx context.Context, accountIDs []string) ([]*models.Loan, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}
	var loans []*models.Loan
	err := r.db.WithContext(ctx).Preload("Repayments").
		Where("account_id IN ?", accountIDs).
		Order("created_at DESC").
		Find(&loans).Error
	return loans, err
}

// ListExpired lists active loans whose end date has passed
func (r *loanRepository) ListExpired(ctx context.Context, now time.Time) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).Preload("Repayments").
		Where("loan_status IN ? AND end_date IS NOT NULL AND end_date < ?",
			[]string{models.LoanStatusApproved, models.LoanStatusActive}, now).
		Find(&loans).Error
	return loans, err
}
