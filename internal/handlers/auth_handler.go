package handlers

import (
	"time"

	"miniblog/internal/logger"
	"miniblog/internal/middleware"
	"miniblog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler handles registration, login, logout and password resets.
type AuthHandler struct {
	authService  *services.AuthService
	sessions     *services.SessionService
	resets       *services.PasswordResetService
	validate     *validator.Validate
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler. secureCookie marks the session
// cookie Secure, which production deployments behind TLS should enable.
func NewAuthHandler(authService *services.AuthService, sessions *services.SessionService, resets *services.PasswordResetService, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		sessions:     sessions,
		resets:       resets,
		validate:     validator.New(),
		secureCookie: secureCookie,
	}
}

// RegisterRoutes registers the authentication routes. limit guards the
// endpoints that can be used to probe credentials or send email.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, limit fiber.Handler) {
	guest := middleware.RedirectIfAuthenticated()

	router.Post("/register", guest, h.HandleRegister)
	router.Post("/login", limit, guest, h.HandleLogin)
	router.Get("/logout", middleware.RequireAuth(), h.HandleLogout)

	router.Post("/reset_password", limit, guest, h.HandleResetRequest)
	router.Get("/reset_password/:token", guest, h.HandleCheckResetToken)
	router.Post("/reset_password/:token", guest, h.HandleResetPassword)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req services.RegisterInput
	if ok, err := bindAndValidate(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.authService.RegisterUser(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Your account has been created! You are now able to log in",
		"user":    user,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
	Remember bool   `json:"remember" form:"remember"`
}

// HandleLogin checks credentials, starts a session and sets the session cookie.
// The session id is also returned for clients that send it as a bearer token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := bindAndValidate(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.authService.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	sess, err := h.sessions.Login(c.UserContext(), user, req.Remember)
	if err != nil {
		return respondError(c, err)
	}

	cookie := &fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if req.Remember {
		cookie.Expires = sess.ExpiresAt
	} else {
		cookie.SessionOnly = true
	}
	c.Cookie(cookie)

	logger.Info("user logged in", zap.Uint("user_id", user.ID), zap.Bool("remember", req.Remember))
	return c.JSON(fiber.Map{
		"message":    "Login successful",
		"token":      sess.ID,
		"expires_at": sess.ExpiresAt.UTC().Format(time.RFC3339),
		"user":       user,
	})
}

// HandleLogout ends the current session and clears the cookie.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.sessions.Logout(c.UserContext(), middleware.SessionFrom(c)); err != nil {
		return respondError(c, err)
	}

	c.ClearCookie(middleware.SessionCookie)
	return c.JSON(fiber.Map{
		"message": "You have been logged out",
	})
}

// ResetRequest represents the request body for starting a password reset.
type ResetRequest struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

// HandleResetRequest mails a reset link. The response is the same whether
// or not the email belongs to an account.
func (h *AuthHandler) HandleResetRequest(c *fiber.Ctx) error {
	var req ResetRequest
	if ok, err := bindAndValidate(c, h.validate, &req); !ok {
		return err
	}

	if err := h.resets.RequestReset(c.UserContext(), req.Email); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "If that email is registered, an email has been sent with instructions to reset your password",
	})
}

// HandleCheckResetToken reports whether a reset token is still usable.
func (h *AuthHandler) HandleCheckResetToken(c *fiber.Ctx) error {
	user, err := h.resets.CheckToken(c.UserContext(), c.Params("token"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":  "Token is valid",
		"username": user.Username,
	})
}

// NewPasswordRequest represents the request body for setting a new password.
type NewPasswordRequest struct {
	Password        string `json:"password" form:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required,eqfield=Password"`
}

// HandleResetPassword sets a new password for the token's user.
func (h *AuthHandler) HandleResetPassword(c *fiber.Ctx) error {
	var req NewPasswordRequest
	if ok, err := bindAndValidate(c, h.validate, &req); !ok {
		return err
	}

	if _, err := h.resets.ResetPassword(c.UserContext(), c.Params("token"), req.Password); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Your password has been updated! You are now able to log in",
	})
}
