package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/models"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/config"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/services"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/pkg/password"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/pkg/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// authUserRepo keeps users in memory and records the durable session
// columns the way the real repository does
type authUserRepo struct {
	users    map[string]*models.User
	sessions map[string]authSessionRow
}

type authSessionRow struct {
	userID    string
	expiresAt time.Time
}

func newAuthUserRepo() *authUserRepo {
	return &authUserRepo{
		users:    make(map[string]*models.User),
		sessions: make(map[string]authSessionRow),
	}
}

func (r *authUserRepo) Create(ctx context.Context, user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *authUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *authUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *authUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *authUserRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.User, error) {
	if row, ok := r.sessions[sessionID]; ok {
		return r.users[row.userID], nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *authUserRepo) Update(ctx context.Context, user *models.User) error { return nil }

func (r *authUserRepo) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	if token, ok := fields["session_id"].(string); ok {
		if exp, ok := fields["session_expires_at"].(time.Time); ok {
			r.sessions[token] = authSessionRow{userID: id, expiresAt: exp}
		}
	}
	return nil
}

func (r *authUserRepo) Delete(ctx context.Context, id string) error { return nil }

func (r *authUserRepo) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	return nil, 0, nil
}

func (r *authUserRepo) ListAll(ctx context.Context) ([]*models.User, error) { return nil, nil }

func (r *authUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r *authUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *authUserRepo) ClearExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type authFallback struct {
	repo *authUserRepo
}

func (f *authFallback) SaveSession(ctx context.Context, userID, token string, expiresAt time.Time) error {
	f.repo.sessions[token] = authSessionRow{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *authFallback) LookupSession(ctx context.Context, token string) (string, time.Time, error) {
	row, ok := f.repo.sessions[token]
	if !ok {
		return "", time.Time{}, gorm.ErrRecordNotFound
	}
	return row.userID, row.expiresAt, nil
}

func (f *authFallback) DropSession(ctx context.Context, token string) error {
	delete(f.repo.sessions, token)
	return nil
}

type authFixture struct {
	app  *fiber.App
	repo *authUserRepo
	cfg  *config.Config
}

func newAuthFixture(t *testing.T, cfg *config.Config) *authFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := newAuthUserRepo()
	store := session.NewStore(rdb, &authFallback{repo: repo}, time.Hour)
	authService := services.NewAuthService(repo, store, cfg)
	handler := NewAuthHandler(authService, cfg)

	app := fiber.New()
	app.Post("/api/v1/users/login", handler.Login)
	app.Delete("/api/v1/users/logout", handler.Logout)
	app.Get("/api/v1/users/verify-session", handler.VerifySession)

	return &authFixture{app: app, repo: repo, cfg: cfg}
}

func baseTestConfig() *config.Config {
	return &config.Config{
		AppMode: "dev",
		Session: config.SessionConfig{
			CookieName: "session_id",
			TTLHours:   1,
			SameSite:   "lax",
		},
	}
}

func (f *authFixture) seedUser(t *testing.T, email, plain string) {
	t.Helper()

	hashed, err := password.Hash(plain)
	require.NoError(t, err)
	f.repo.users["user-1"] = &models.User{
		ID:       "user-1",
		Username: "someone",
		Email:    email,
		Password: hashed,
	}
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	return resp
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "session_id" {
			return c
		}
	}
	return nil
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t, baseTestConfig())
	f.seedUser(t, "someone@example.com", "correct-horse-1")

	resp := postJSON(t, f.app, "/api/v1/users/login", fiber.Map{
		"email":    "someone@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Invalid credentials", body["error"])
	assert.Nil(t, sessionCookie(resp))
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	f := newAuthFixture(t, baseTestConfig())

	resp := postJSON(t, f.app, "/api/v1/users/login", fiber.Map{
		"email":    "nobody@example.com",
		"password": "whatever-123",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	// Unknown email and wrong password are indistinguishable
	assert.Equal(t, "Invalid credentials", body["error"])
}

func TestLoginSuccessSetsSessionCookie(t *testing.T) {
	f := newAuthFixture(t, baseTestConfig())
	f.seedUser(t, "someone@example.com", "correct-horse-1")

	resp := postJSON(t, f.app, "/api/v1/users/login", fiber.Map{
		"email":    "someone@example.com",
		"password": "correct-horse-1",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	data := body["data"].(map[string]interface{})
	assert.Equal(t, cookie.Value, data["token"])

	user := data["user"].(map[string]interface{})
	assert.Equal(t, "user-1", user["id"])
	assert.Equal(t, "user", user["role"])
}

func TestLoginValidationFailure(t *testing.T) {
	f := newAuthFixture(t, baseTestConfig())

	resp := postJSON(t, f.app, "/api/v1/users/login", fiber.Map{
		"email": "not-an-email",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestDevLoginBypass(t *testing.T) {
	cfg := baseTestConfig()
	cfg.DevLogin = config.DevLoginConfig{Enabled: true, Password: "letmein-dev"}
	f := newAuthFixture(t, cfg)

	resp := postJSON(t, f.app, "/api/v1/users/login", fiber.Map{
		"email":    "anyone@example.com",
		"password": "letmein-dev",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	data := body["data"].(map[string]interface{})
	user := data["user"].(map[string]interface{})

	// The dev principal is synthesized without a user row
	assert.Equal(t, "dev-user-anyone@example.com", user["id"])
	assert.Equal(t, "admin", user["role"])
	assert.Empty(t, f.repo.sessions)

	// And its session resolves afterwards
	token := data["token"].(string)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/verify-session", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: token})
	verifyResp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, verifyResp.StatusCode)
}

func TestDevLoginDisabledFallsThrough(t *testing.T) {
	cfg := baseTestConfig()
	cfg.DevLogin = config.DevLoginConfig{}
	f := newAuthFixture(t, cfg)

	resp := postJSON(t, f.app, "/api/v1/users/login", fiber.Map{
		"email":    "anyone@example.com",
		"password": "letmein-dev",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutClearsCookieForUnknownToken(t *testing.T) {
	f := newAuthFixture(t, baseTestConfig())

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "already-gone"})
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestLogoutDestroysBearerSession(t *testing.T) {
	f := newAuthFixture(t, baseTestConfig())
	f.seedUser(t, "someone@example.com", "correct-horse-1")

	loginResp := postJSON(t, f.app, "/api/v1/users/login", fiber.Map{
		"email":    "someone@example.com",
		"password": "correct-horse-1",
	})
	require.Equal(t, fiber.StatusOK, loginResp.StatusCode)
	token := sessionCookie(loginResp).Value

	// Logout with the token in the Authorization header only, no cookie
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// The session is gone through either channel
	verifyReq := httptest.NewRequest(http.MethodGet, "/api/v1/users/verify-session", nil)
	verifyReq.Header.Set("Authorization", "Bearer "+token)
	verifyResp, err := f.app.Test(verifyReq)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, verifyResp.StatusCode)
}

func TestLogoutDestroysSession(t *testing.T) {
	f := newAuthFixture(t, baseTestConfig())
	f.seedUser(t, "someone@example.com", "correct-horse-1")

	loginResp := postJSON(t, f.app, "/api/v1/users/login", fiber.Map{
		"email":    "someone@example.com",
		"password": "correct-horse-1",
	})
	require.Equal(t, fiber.StatusOK, loginResp.StatusCode)
	token := sessionCookie(loginResp).Value

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: token})
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// The token no longer resolves
	verifyReq := httptest.NewRequest(http.MethodGet, "/api/v1/users/verify-session", nil)
	verifyReq.AddCookie(&http.Cookie{Name: "session_id", Value: token})
	verifyResp, err := f.app.Test(verifyReq)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, verifyResp.StatusCode)
}
