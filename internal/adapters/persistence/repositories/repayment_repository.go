package repositories

import (
	"context"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// repaymentRepository implements RepaymentRepository interface
type repaymentRepository struct {
	db *gorm.DB
}

// NewRepaymentRepository creates a new repayment repository
func NewRepaymentRepository(db *gorm.DB) RepaymentRepository {
	return &repaymentRepository{db: db}
}

// Create creates a new repayment
func (r *repaymentRepository) Create(ctx context.Context, repayment *models.Repayment) error {
	return r.db.WithContext(ctx).Create(repayment).Error
}

// GetByID gets a repayment by ID
func (r *repaymentRepository) GetByID(ctx context.Context, id string) (*models.Repayment, error) {
	var repayment models.Repayment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&repayment).Error
	if err != nil {
		return nil, err
	}
	return &repayment, nil
}

// Update saves a repayment record
func (r *repaymentRepository) Update(ctx context.Context, repayment *models.Repayment) error {
	return r.db.WithContext(ctx).Save(repayment).Error
}

// Delete soft deletes a repayment
func (r *repaymentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Repayment{}).Error
}

// List lists repayments with pagination
func (r *repaymentRepository) List(ctx context.Context, offset, limit int) ([]*models.Repayment, int64, error) {
	var repayments []*models.Repayment
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Repayment{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).Offset(offset).Limit(limit).Order("created_at DESC").Find(&repayments).Error; err != nil {
		return nil, 0, err
	}

	return repayments, total, nil
}

// ListByLoanID lists repayments recorded against a loan
func (r *repaymentRepository) ListByLoanID(ctx context.Context, loanID string) ([]*models.Repayment, error) {
	var repayments []*models.Repayment
	err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("created_at ASC").Find(&repayments).Error
	return repayments, err
}
