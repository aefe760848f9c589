package handlers

import (
	"errors"

	"miniblog/internal/logger"
	"miniblog/internal/middleware"
	"miniblog/internal/models"
	"miniblog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// AccountHandler serves the current user's profile.
type AccountHandler struct {
	authService *services.AuthService
	avatars     *services.AvatarService
	validate    *validator.Validate
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(authService *services.AuthService, avatars *services.AvatarService) *AccountHandler {
	return &AccountHandler{
		authService: authService,
		avatars:     avatars,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the account routes. Both require a session.
func (h *AccountHandler) RegisterRoutes(router fiber.Router) {
	account := router.Group("/account", middleware.RequireAuth())
	account.Get("/", h.HandleGetAccount)
	account.Post("/", h.HandleUpdateAccount)
}

// HandleGetAccount returns the current user and their avatar URL.
func (h *AccountHandler) HandleGetAccount(c *fiber.Ctx) error {
	return c.JSON(h.accountView(middleware.CurrentUser(c)))
}

// HandleUpdateAccount updates the profile. An optional multipart "picture"
// file replaces the avatar.
func (h *AccountHandler) HandleUpdateAccount(c *fiber.Ctx) error {
	var req services.ProfileInput
	if ok, err := bindAndValidate(c, h.validate, &req); !ok {
		return err
	}

	imageFile := ""
	header, err := c.FormFile("picture")
	switch {
	case err == nil:
		f, err := header.Open()
		if err != nil {
			return respondError(c, err)
		}
		defer f.Close()

		imageFile, err = h.avatars.Save(c.UserContext(), header.Filename, f)
		if err != nil {
			return respondError(c, err)
		}
	case errors.Is(err, fasthttp.ErrNoMultipartForm), errors.Is(err, fasthttp.ErrMissingFile):
		// No picture uploaded.
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	current := middleware.CurrentUser(c)
	user, err := h.authService.UpdateProfile(c.UserContext(), current.ID, req, imageFile)
	if err != nil {
		// The new picture was never attached to the profile.
		if delErr := h.avatars.Delete(c.UserContext(), imageFile); delErr != nil {
			logger.Warn("failed to remove orphaned avatar", zap.String("file", imageFile), zap.Error(delErr))
		}
		return respondError(c, err)
	}

	view := h.accountView(user)
	view["message"] = "Your account has been updated!"
	return c.JSON(view)
}

func (h *AccountHandler) accountView(user *models.User) fiber.Map {
	return fiber.Map{
		"user":      user,
		"image_url": h.avatars.URL(user.ImageFile),
	}
}
