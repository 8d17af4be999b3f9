package repositories

import (
	"context"
	"time"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/domain"
)

// SessionFallback exposes the session columns of the user table as the
// durable channel behind the session store.
type SessionFallback struct {
	users UserRepository
}

// NewSessionFallback creates a session fallback over the user repository
func NewSessionFallback(users UserRepository) *SessionFallback {
	return &SessionFallback{users: users}
}

func (f *SessionFallback) SaveSession(ctx context.Context, userID, token string, expiresAt time.Time) error {
	return f.users.UpdateFields(ctx, userID, map[string]interface{}{
		"session_id":         token,
		"session_expires_at": expiresAt,
	})
}

func (f *SessionFallback) LookupSession(ctx context.Context, token string) (string, time.Time, error) {
	user, err := f.users.GetBySessionID(ctx, token)
	if err != nil {
		return "", time.Time{}, err
	}
	if user.SessionExpiresAt == nil {
		return "", time.Time{}, domain.ErrSessionNotFound
	}
	return user.ID, *user.SessionExpiresAt, nil
}

func (f *SessionFallback) DropSession(ctx context.Context, token string) error {
	user, err := f.users.GetBySessionID(ctx, token)
	if err != nil {
		// Already gone; dropping is idempotent
		return nil
	}
	return f.users.UpdateFields(ctx, user.ID, map[string]interface{}{
		"session_id":         nil,
		"session_expires_at": nil,
	})
}
