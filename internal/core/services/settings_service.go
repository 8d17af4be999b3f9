package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

const settingsKey = "platform"

// PlatformSettings are the admin-tunable platform knobs, persisted as
// one JSON blob. Out-of-range values are clamped on write, never rejected.
type PlatformSettings struct {
	Security  SecuritySettings  `json:"security"`
	Financial FinancialSettings `json:"financial"`
	Users     UserSettings      `json:"users"`
}

// SecuritySettings holds authentication knobs
type SecuritySettings struct {
	SessionTimeoutMinutes int  `json:"session_timeout_minutes"`
	MaxLoginAttempts      int  `json:"max_login_attempts"`
	RequireVerification   bool `json:"require_verification"`
}

// FinancialSettings holds lending knobs
type FinancialSettings struct {
	MinLoanAmount       float64 `json:"min_loan_amount"`
	MaxLoanAmount       float64 `json:"max_loan_amount"`
	DefaultInterestRate float64 `json:"default_interest_rate"`
	MaxRepaymentMonths  int     `json:"max_repayment_months"`
	OverdraftLimit      float64 `json:"overdraft_limit"`
}

// UserSettings holds registration knobs
type UserSettings struct {
	AllowRegistration bool `json:"allow_registration"`
	DefaultCurrency   string `json:"default_currency"`
}

// DefaultSettings returns the platform defaults
func DefaultSettings() *PlatformSettings {
	return &PlatformSettings{
		Security: SecuritySettings{
			SessionTimeoutMinutes: 1440,
			MaxLoginAttempts:      5,
			RequireVerification:   false,
		},
		Financial: FinancialSettings{
			MinLoanAmount:       100,
			MaxLoanAmount:       1000000,
			DefaultInterestRate: 12.5,
			MaxRepaymentMonths:  60,
			OverdraftLimit:      0,
		},
		Users: UserSettings{
			AllowRegistration: true,
			DefaultCurrency:   "ETB",
		},
	}
}

// SettingsService loads and stores platform settings
type SettingsService struct {
	settingRepo repositories.SettingRepository
}

// NewSettingsService creates a new settings service
func NewSettingsService(settingRepo repositories.SettingRepository) *SettingsService {
	return &SettingsService{settingRepo: settingRepo}
}

// Get returns the stored settings, falling back to defaults
func (s *SettingsService) Get(ctx context.Context) (*PlatformSettings, error) {
	row, err := s.settingRepo.Get(ctx, settingsKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal([]byte(row.Value), settings); err != nil {
		log.Printf("⚠️ Corrupt settings blob, serving defaults: %v", err)
		return DefaultSettings(), nil
	}
	return settings, nil
}

// Update clamps and persists new settings, returning the stored value
func (s *SettingsService) Update(ctx context.Context, settings *PlatformSettings) (*PlatformSettings, error) {
	clampSettings(settings)

	blob, err := json.Marshal(settings)
	if err != nil {
		return nil, err
	}
	if err := s.settingRepo.Put(ctx, settingsKey, string(blob)); err != nil {
		return nil, err
	}

	log.Printf("✅ Platform settings updated")
	return settings, nil
}

// clampSettings forces every knob into its legal range
func clampSettings(s *PlatformSettings) {
	s.Security.SessionTimeoutMinutes = clampInt(s.Security.SessionTimeoutMinutes, 5, 10080)
	s.Security.MaxLoginAttempts = clampInt(s.Security.MaxLoginAttempts, 1, 20)

	s.Financial.MinLoanAmount = clampFloat(s.Financial.MinLoanAmount, 1, 1000000)
	s.Financial.MaxLoanAmount = clampFloat(s.Financial.MaxLoanAmount, s.Financial.MinLoanAmount, 10000000)
	s.Financial.DefaultInterestRate = clampFloat(s.Financial.DefaultInterestRate, 0, 100)
	s.Financial.MaxRepaymentMonths = clampInt(s.Financial.MaxRepaymentMonths, 1, 360)
	s.Financial.OverdraftLimit = clampFloat(s.Financial.OverdraftLimit, 0, 100000)

	if s.Users.DefaultCurrency == "" {
		s.Users.DefaultCurrency = "ETB"
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
