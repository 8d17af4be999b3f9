package services

import (
	"context"
	"fmt"
	"log"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/models"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/repositories"
)

// NotificationService handles in-app notifications
type NotificationService struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
	}
}

// ListByUser returns a user's notifications, newest first
func (s *NotificationService) ListByUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	return s.notificationRepo.ListByUserID(ctx, userID)
}

// MarkRead marks one of the user's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}

// MarkAllRead marks all of a user's notifications as read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

// Notify records a notification for one user. Delivery failures are
// logged, never propagated; notifications are best effort.
func (s *NotificationService) Notify(ctx context.Context, userID, message string) {
	n := &models.Notification{
		UserID:  userID,
		Message: message,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		log.Printf("⚠️ Failed to create notification for user %s: %v", userID, err)
	}
}

// NotifyAdmins records a notification for every admin user
func (s *NotificationService) NotifyAdmins(ctx context.Context, message string) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		log.Printf("⚠️ Failed to list users for admin notification: %v", err)
		return
	}
	for _, u := range users {
		if u.Admin {
			s.Notify(ctx, u.ID, message)
		}
	}
}

// NotifyLoanApplied announces a new loan application
func (s *NotificationService) NotifyLoanApplied(ctx context.Context, loan *models.Loan, applicantID string) {
	s.Notify(ctx, applicantID, fmt.Sprintf("Your loan application for %.2f ETB has been submitted.", loan.Amount))
	s.NotifyAdmins(ctx, fmt.Sprintf("New loan application for %.2f ETB awaiting review.", loan.Amount))
}

// NotifyLoanDecision announces an approval or rejection to the applicant
func (s *NotificationService) NotifyLoanDecision(ctx context.Context, loan *models.Loan, applicantID string) {
	switch loan.LoanStatus {
	case models.LoanStatusActive, models.LoanStatusApproved:
		s.Notify(ctx, applicantID, fmt.Sprintf("Your loan of %.2f ETB has been approved and disbursed.", loan.Amount))
	case models.LoanStatusRejected:
		msg := "Your loan application has been rejected."
		if loan.RejectionReason != "" {
			msg = fmt.Sprintf("Your loan application has been rejected: %s", loan.RejectionReason)
		}
		s.Notify(ctx, applicantID, msg)
	}
}
