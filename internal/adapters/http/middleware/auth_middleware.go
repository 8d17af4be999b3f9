package middleware

import (
	"errors"
	"strings"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/config"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/domain"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// Context local keys set by RequireAuth
const (
	LocalUserID = "userID"
	LocalRole   = "role"
	LocalUser   = "user"
	LocalToken  = "sessionToken"
)

// roleHome maps a role to its landing route, returned with 403s so
// clients can send the user somewhere they are allowed to be.
func roleHome(role string) string {
	if role == "admin" {
		return "/admin/dashboard"
	}
	return "/user/dashboard"
}

// RequireAuth resolves the session token and attaches the caller to
// the context. Nothing downstream runs while the session is unresolved;
// missing or invalid sessions get a 401 carrying the attempted path.
func RequireAuth(auth *services.AuthService, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractToken(c, cfg)
		if token == "" {
			return unauthorized(c, "Authentication required")
		}

		user, err := auth.VerifySession(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, domain.ErrSessionExpired) {
				return unauthorized(c, "Session expired")
			}
			if errors.Is(err, domain.ErrSessionNotFound) {
				return unauthorized(c, "Invalid session")
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Could not verify session",
			})
		}

		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalRole, user.Role)
		c.Locals(LocalUser, user)
		c.Locals(LocalToken, token)

		return c.Next()
	}
}

// RequireRoles allows only callers whose role is in the allowed set.
// Rejections carry the caller's own home route as a redirect hint.
func RequireRoles(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(LocalRole).(string)
		if !ok {
			return unauthorized(c, "Authentication required")
		}

		for _, allowed := range allowedRoles {
			if role == allowed {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success":  false,
			"error":    "You don't have permission to access this resource",
			"redirect": roleHome(role),
		})
	}
}

// AdminOnly allows only admin callers
func AdminOnly() fiber.Handler {
	return RequireRoles("admin")
}

// OptionalAuth attaches the caller when a valid session is presented
// but never rejects the request
func OptionalAuth(auth *services.AuthService, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractToken(c, cfg)
		if token != "" {
			if user, err := auth.VerifySession(c.UserContext(), token); err == nil {
				c.Locals(LocalUserID, user.ID)
				c.Locals(LocalRole, user.Role)
				c.Locals(LocalUser, user)
				c.Locals(LocalToken, token)
			}
		}
		return c.Next()
	}
}

// extractToken reads the session token, cookie first then bearer header
func extractToken(c *fiber.Ctx, cfg *config.Config) string {
	if token := c.Cookies(cfg.Session.CookieName); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// unauthorized is the 401 shape: the `from` field carries the path the
// caller attempted so clients can return there after login.
func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"error":   message,
		"from":    c.OriginalURL(),
	})
}
