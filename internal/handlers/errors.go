package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"miniblog/internal/logger"
	"miniblog/pkg/apperrors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// respondError maps a service error onto a status code and JSON body.
func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	body := fiber.Map{"message": messageFor(err, status)}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		body["errors"] = map[string]string{appErr.Code: appErr.Message}
	}

	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(status).JSON(body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, apperrors.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, apperrors.ErrInvalidCredentials),
		errors.Is(err, apperrors.ErrAuthenticationRequired):
		return fiber.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperrors.ErrTokenInvalid):
		return fiber.StatusBadRequest
	case errors.Is(err, apperrors.ErrMailDelivery):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func messageFor(err error, status int) string {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr.Message
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return "Login unsuccessful. Please check email and password"
	case errors.Is(err, apperrors.ErrTokenInvalid):
		return "That is an invalid or expired token"
	case errors.Is(err, apperrors.ErrMailDelivery):
		return "Could not send the password reset email"
	case status == fiber.StatusInternalServerError:
		return "Internal server error"
	default:
		return utils.StatusMessage(status)
	}
}

// bindAndValidate decodes the request body into dst and validates it. When
// ok is false the error response has already been written and err is the
// result of writing it.
func bindAndValidate(c *fiber.Ctx, validate *validator.Validate, dst interface{}) (ok bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return false, respondError(c, err)
		}
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return true, nil
}

// idParam reads a positive integer path parameter. Malformed ids are
// reported as ErrNotFound, the same as an id that matches nothing.
func idParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.ErrNotFound
	}
	return uint(id), nil
}

// pageQuery reads ?page=, defaulting to 1. Non-numeric values are treated as 1.
func pageQuery(c *fiber.Ctx) int {
	return c.QueryInt("page", 1)
}

// ErrorHandler is the Fiber app error handler. It renders fiber.Error values
// such as unknown routes with their own status and everything else through
// the service error mapping.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"message": fiberErr.Message,
		})
	}
	return respondError(c, err)
}
