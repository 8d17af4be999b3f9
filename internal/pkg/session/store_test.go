package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fallbackRow struct {
	userID    string
	expiresAt time.Time
}

type memFallback struct {
	mu   sync.Mutex
	rows map[string]fallbackRow
}

func newMemFallback() *memFallback {
	return &memFallback{rows: make(map[string]fallbackRow)}
}

func (m *memFallback) SaveSession(_ context.Context, userID, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[token] = fallbackRow{userID: userID, expiresAt: expiresAt}
	return nil
}

func (m *memFallback) LookupSession(_ context.Context, token string) (string, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[token]
	if !ok {
		return "", time.Time{}, domain.ErrSessionNotFound
	}
	return row.userID, row.expiresAt, nil
}

func (m *memFallback) DropSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, token)
	return nil
}

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis, *memFallback) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	fb := newMemFallback()
	return NewStore(rdb, fb, 24*time.Hour), mr, fb
}

func TestStoreCreateAndResolve(t *testing.T) {
	store, _, fb := newTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := store.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	// Both channels hold the session
	_, ok := fb.rows[token]
	assert.True(t, ok)
}

func TestStoreResolveBackfillsCacheFromFallback(t *testing.T) {
	store, mr, _ := newTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, "user-2")
	require.NoError(t, err)

	// Simulate a cache flush; the durable channel still has the session
	mr.FlushAll()

	userID, err := store.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-2", userID)

	// The read repaired the cache
	assert.True(t, mr.Exists(keyPrefix+token))
}

func TestStoreResolveExpiredFallback(t *testing.T) {
	store, mr, fb := newTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, "user-3")
	require.NoError(t, err)

	mr.FlushAll()
	fb.rows[token] = fallbackRow{userID: "user-3", expiresAt: time.Now().Add(-time.Minute)}

	_, err = store.Resolve(ctx, token)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)

	// The stale fallback row was dropped
	_, ok := fb.rows[token]
	assert.False(t, ok)
}

func TestStoreResolveUnknownToken(t *testing.T) {
	store, _, _ := newTestStore(t)

	_, err := store.Resolve(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = store.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStoreDestroyIsIdempotent(t *testing.T) {
	store, mr, fb := newTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, "user-4")
	require.NoError(t, err)

	require.NoError(t, store.Destroy(ctx, token))
	assert.False(t, mr.Exists(keyPrefix+token))
	_, ok := fb.rows[token]
	assert.False(t, ok)

	// Destroying again, or destroying junk, is not an error
	assert.NoError(t, store.Destroy(ctx, token))
	assert.NoError(t, store.Destroy(ctx, "never-existed"))
	assert.NoError(t, store.Destroy(ctx, ""))
}

func TestStoreCreateDev(t *testing.T) {
	store, _, fb := newTestStore(t)
	ctx := context.Background()

	token, err := store.CreateDev(ctx, domain.DevUserPrefix+"alice")
	require.NoError(t, err)

	userID, err := store.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, domain.DevUserPrefix+"alice", userID)

	// Dev sessions never touch the durable channel
	assert.Empty(t, fb.rows)

	// Regular user IDs are rejected
	_, err = store.CreateDev(ctx, "user-5")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
