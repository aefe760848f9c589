package middleware

import (
	"strings"

	"miniblog/internal/logger"
	"miniblog/internal/models"
	"miniblog/internal/services"
	"miniblog/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SessionCookie is the cookie carrying the session id.
const SessionCookie = "session"

const localsSession = "session"

// LoadSession resolves the caller's session from the session cookie or an
// "Authorization: Bearer <id>" header and stores it for later handlers.
// Callers without a valid session continue as anonymous.
func LoadSession(sessions *services.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := sessions.Resolve(c.UserContext(), sessionID(c))
		if err != nil {
			logger.Error("session lookup failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"message": "Session store unavailable",
			})
		}

		c.Locals(localsSession, sess)
		return c.Next()
	}
}

func sessionID(c *fiber.Ctx) string {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Cookies(SessionCookie)
}

// SessionFrom returns the session LoadSession stored, or an anonymous one.
func SessionFrom(c *fiber.Ctx) *services.Session {
	if sess, ok := c.Locals(localsSession).(*services.Session); ok && sess != nil {
		return sess
	}
	return services.Anonymous()
}

// CurrentUser is shorthand for SessionFrom(c).CurrentUser().
func CurrentUser(c *fiber.Ctx) *models.User {
	return SessionFrom(c).CurrentUser()
}

// RequireAuth rejects anonymous callers before the handler runs.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !SessionFrom(c).IsAuthenticated() {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Please log in to access this page",
				"error":   apperrors.ErrAuthenticationRequired.Error(),
			})
		}
		return c.Next()
	}
}

// RedirectIfAuthenticated sends logged-in callers home; used on the
// register, login and password reset routes.
func RedirectIfAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if SessionFrom(c).IsAuthenticated() {
			return c.Redirect("/", fiber.StatusSeeOther)
		}
		return c.Next()
	}
}
