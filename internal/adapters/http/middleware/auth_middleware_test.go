package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/models"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/config"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/services"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/pkg/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// guardUserRepo satisfies only the lookups the guards reach
type guardUserRepo struct {
	users    map[string]*models.User
	sessions map[string]sessionRow
}

type sessionRow struct {
	userID    string
	expiresAt time.Time
}

func newGuardUserRepo() *guardUserRepo {
	return &guardUserRepo{
		users:    make(map[string]*models.User),
		sessions: make(map[string]sessionRow),
	}
}

func (r *guardUserRepo) Create(ctx context.Context, user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *guardUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *guardUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *guardUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *guardUserRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.User, error) {
	if row, ok := r.sessions[sessionID]; ok {
		return r.users[row.userID], nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *guardUserRepo) Update(ctx context.Context, user *models.User) error { return nil }

func (r *guardUserRepo) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	if token, ok := fields["session_id"].(string); ok {
		if exp, ok := fields["session_expires_at"].(time.Time); ok {
			r.sessions[token] = sessionRow{userID: id, expiresAt: exp}
		}
	}
	return nil
}

func (r *guardUserRepo) Delete(ctx context.Context, id string) error { return nil }

func (r *guardUserRepo) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	return nil, 0, nil
}

func (r *guardUserRepo) ListAll(ctx context.Context) ([]*models.User, error) { return nil, nil }

func (r *guardUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return false, nil
}

func (r *guardUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}

func (r *guardUserRepo) ClearExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

// repoFallback mirrors the production fallback wiring over the stub repo
type repoFallback struct {
	repo *guardUserRepo
}

func (f *repoFallback) SaveSession(ctx context.Context, userID, token string, expiresAt time.Time) error {
	f.repo.sessions[token] = sessionRow{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *repoFallback) LookupSession(ctx context.Context, token string) (string, time.Time, error) {
	row, ok := f.repo.sessions[token]
	if !ok {
		return "", time.Time{}, gorm.ErrRecordNotFound
	}
	return row.userID, row.expiresAt, nil
}

func (f *repoFallback) DropSession(ctx context.Context, token string) error {
	delete(f.repo.sessions, token)
	return nil
}

type guardFixture struct {
	app   *fiber.App
	auth  *services.AuthService
	store *session.Store
	repo  *guardUserRepo
	cfg   *config.Config
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := newGuardUserRepo()
	store := session.NewStore(rdb, &repoFallback{repo: repo}, time.Hour)

	cfg := &config.Config{
		Session: config.SessionConfig{
			CookieName: "session_id",
			TTLHours:   1,
		},
	}
	auth := services.NewAuthService(repo, store, cfg)

	return &guardFixture{
		app:   fiber.New(),
		auth:  auth,
		store: store,
		repo:  repo,
		cfg:   cfg,
	}
}

func (f *guardFixture) addUser(t *testing.T, id string, admin bool) string {
	t.Helper()

	f.repo.users[id] = &models.User{
		ID:       id,
		Username: id,
		Email:    id + "@example.com",
		Admin:    admin,
	}
	token, err := f.store.Create(context.Background(), id)
	require.NoError(t, err)
	return token
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestRequireAuthMissingTokenCarriesFrom(t *testing.T) {
	f := newGuardFixture(t)
	f.app.Get("/api/v1/loans/my", RequireAuth(f.auth, f.cfg), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans/my?page=2", nil)
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Authentication required", body["error"])
	assert.Equal(t, "/api/v1/loans/my?page=2", body["from"])
}

func TestRequireAuthUnknownToken(t *testing.T) {
	f := newGuardFixture(t)
	f.app.Get("/protected", RequireAuth(f.auth, f.cfg), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-session")
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "Invalid session", body["error"])
}

func TestRequireAuthAttachesCaller(t *testing.T) {
	f := newGuardFixture(t)
	token := f.addUser(t, "user-1", false)

	f.app.Get("/protected", RequireAuth(f.auth, f.cfg), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": c.Locals(LocalUserID),
			"role":    c.Locals(LocalRole),
			"token":   c.Locals(LocalToken),
		})
	})

	// Cookie channel
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: token})
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "user-1", body["user_id"])
	assert.Equal(t, "user", body["role"])
	assert.Equal(t, token, body["token"])

	// Bearer channel works too
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRolesRejectsWithRedirect(t *testing.T) {
	f := newGuardFixture(t)
	token := f.addUser(t, "user-2", false)

	f.app.Get("/admin-only", RequireAuth(f.auth, f.cfg), AdminOnly(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: token})
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "/user/dashboard", body["redirect"])
}

func TestRequireRolesAllowsAdmin(t *testing.T) {
	f := newGuardFixture(t)
	token := f.addUser(t, "admin-1", true)

	f.app.Get("/admin-only", RequireAuth(f.auth, f.cfg), AdminOnly(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: token})
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireAuthDevPrincipal(t *testing.T) {
	f := newGuardFixture(t)
	token, err := f.store.CreateDev(context.Background(), "dev-user-dev@example.com")
	require.NoError(t, err)

	f.app.Get("/admin-only", RequireAuth(f.auth, f.cfg), AdminOnly(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"role": c.Locals(LocalRole)})
	})

	// Dev principals resolve without a user row and carry the admin role
	req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: token})
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "admin", body["role"])
}

func TestOptionalAuthNeverRejects(t *testing.T) {
	f := newGuardFixture(t)

	f.app.Get("/open", OptionalAuth(f.auth, f.cfg), func(c *fiber.Ctx) error {
		_, authed := c.Locals(LocalUserID).(string)
		return c.JSON(fiber.Map{"authed": authed})
	})

	// No token at all
	resp, err := f.app.Test(httptest.NewRequest(http.MethodGet, "/open", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decodeBody(t, resp)["authed"])

	// Garbage token is ignored
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer junk")
	resp, err = f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decodeBody(t, resp)["authed"])

	// Valid token attaches the caller
	token := f.addUser(t, "user-3", false)
	req = httptest.NewRequest(http.MethodGet, "/open", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: token})
	resp, err = f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, true, decodeBody(t, resp)["authed"])
}
