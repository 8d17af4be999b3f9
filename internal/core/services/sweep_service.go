package services

import (
	"context"
	"log"
	"time"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/models"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// SweepService runs scheduled maintenance jobs: clearing expired
// session columns and flagging loans past their end date as overdue.
type SweepService struct {
	userRepo      repositories.UserRepository
	loanRepo      repositories.LoanRepository
	notifications *NotificationService
	accountRepo   repositories.AccountRepository
	cron          *cron.Cron
}

// NewSweepService creates a new sweep service
func NewSweepService(
	userRepo repositories.UserRepository,
	loanRepo repositories.LoanRepository,
	accountRepo repositories.AccountRepository,
	notifications *NotificationService,
) *SweepService {
	return &SweepService{
		userRepo:      userRepo,
		loanRepo:      loanRepo,
		accountRepo:   accountRepo,
		notifications: notifications,
		cron:          cron.New(),
	}
}

// Start schedules the sweep jobs
func (s *SweepService) Start() {
	// Expired session columns: hourly
	s.cron.AddFunc("@hourly", s.SweepSessions)

	// Overdue loans: daily at 01:00
	s.cron.AddFunc("0 1 * * *", s.SweepOverdueLoans)

	s.cron.Start()
	log.Println("🚀 SweepService started")
}

// Stop stops the scheduler, waiting for running jobs
func (s *SweepService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 SweepService stopped")
}

// SweepSessions nulls session columns past their expiry
func (s *SweepService) SweepSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cleared, err := s.userRepo.ClearExpiredSessions(ctx, time.Now())
	if err != nil {
		log.Printf("❌ Session sweep failed: %v", err)
		return
	}
	if cleared > 0 {
		log.Printf("✅ Session sweep cleared %d expired sessions", cleared)
	}
}

// SweepOverdueLoans marks active loans past their end date as overdue
func (s *SweepService) SweepOverdueLoans() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	loans, err := s.loanRepo.ListExpired(ctx, time.Now())
	if err != nil {
		log.Printf("❌ Overdue sweep query failed: %v", err)
		return
	}

	for _, loan := range loans {
		if RemainingBalance(loan) <= 0 {
			continue
		}
		if err := s.loanRepo.UpdateFields(ctx, loan.ID, map[string]interface{}{
			"loan_status": models.LoanStatusOverdue,
		}); err != nil {
			log.Printf("❌ Failed to mark loan %s overdue: %v", loan.ID, err)
			continue
		}

		if account, err := s.accountRepo.GetByID(ctx, loan.AccountID); err == nil {
			s.notifications.Notify(ctx, account.UserID,
				"Your loan is past its repayment period and has been marked overdue. Please make a payment.")
		}
	}

	if len(loans) > 0 {
		log.Printf("✅ Overdue sweep processed %d loans", len(loans))
	}
}
