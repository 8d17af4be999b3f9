package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "sess:"

// Fallback is the durable second channel of the store. The user table
// implements it: one session column pair per user.
type Fallback interface {
	SaveSession(ctx context.Context, userID, token string, expiresAt time.Time) error
	LookupSession(ctx context.Context, token string) (userID string, expiresAt time.Time, err error)
	DropSession(ctx context.Context, token string) error
}

// Store keeps opaque session tokens in two backing writers: Redis is
// the authoritative fast channel, the fallback survives cache flushes.
// Reads repair divergence by backfilling Redis from the fallback.
type Store struct {
	rdb      *redis.Client
	fallback Fallback
	ttl      time.Duration
}

// NewStore creates a session store
func NewStore(rdb *redis.Client, fallback Fallback, ttl time.Duration) *Store {
	return &Store{
		rdb:      rdb,
		fallback: fallback,
		ttl:      ttl,
	}
}

// TTL returns the configured session lifetime
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create issues a new opaque token for the user and writes it to both
// channels. A fallback write failure fails the whole create: a session
// that exists in only one channel defeats the self-healing read.
func (s *Store) Create(ctx context.Context, userID string) (string, error) {
	token := uuid.New().String()
	expiresAt := time.Now().Add(s.ttl)

	if err := s.rdb.Set(ctx, keyPrefix+token, userID, s.ttl).Err(); err != nil {
		return "", err
	}

	if err := s.fallback.SaveSession(ctx, userID, token, expiresAt); err != nil {
		// Roll back the cache write so the channels stay in sync
		s.rdb.Del(ctx, keyPrefix+token)
		return "", err
	}

	return token, nil
}

// CreateDev issues a cache-only session for a synthesized dev principal.
// Dev principals have no user row, so the fallback channel is skipped.
func (s *Store) CreateDev(ctx context.Context, userID string) (string, error) {
	if !strings.HasPrefix(userID, domain.DevUserPrefix) {
		return "", domain.ErrInvalidInput
	}
	token := uuid.New().String()
	if err := s.rdb.Set(ctx, keyPrefix+token, userID, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve maps a token to its user ID. Redis is consulted first; on a
// miss the fallback channel is checked and, when it still holds a live
// session, Redis is backfilled for the remaining lifetime.
func (s *Store) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrSessionNotFound
	}

	userID, err := s.rdb.Get(ctx, keyPrefix+token).Result()
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", err
	}

	// Cache miss: self-healing read from the durable channel
	userID, expiresAt, err := s.fallback.LookupSession(ctx, token)
	if err != nil {
		return "", domain.ErrSessionNotFound
	}

	remaining := time.Until(expiresAt)
	if remaining <= 0 {
		// Expired in the fallback too; drop the stale row
		_ = s.fallback.DropSession(ctx, token)
		return "", domain.ErrSessionExpired
	}

	if err := s.rdb.Set(ctx, keyPrefix+token, userID, remaining).Err(); err != nil {
		log.Printf("⚠️ Session backfill failed for user %s: %v", userID, err)
	}

	return userID, nil
}

// Destroy removes a token from both channels. Idempotent: destroying
// an unknown token is not an error.
func (s *Store) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	cacheErr := s.rdb.Del(ctx, keyPrefix+token).Err()
	fallbackErr := s.fallback.DropSession(ctx, token)

	if cacheErr != nil {
		return cacheErr
	}
	return fallbackErr
}
