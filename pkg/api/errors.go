package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gopass/dashboard/pkg/apiclient"
	"github.com/gopass/dashboard/pkg/session"
)

// StatusFor maps an error returned by a handler onto the response status and message
func StatusFor(err error) (int, string) {
	var apiError *apiclient.Error
	var fiberError *fiber.Error
	var validationErrors validator.ValidationErrors

	switch {
	case errors.As(err, &apiError):
		message := apiError.Message
		if message == "" {
			message = http.StatusText(apiError.StatusCode)
		}
		return apiError.StatusCode, message
	case errors.Is(err, apiclient.ErrUnauthorized), errors.Is(err, session.ErrNotAuthenticated):
		return fiber.StatusUnauthorized, err.Error()
	case errors.Is(err, session.ErrForbidden):
		return fiber.StatusForbidden, err.Error()
	case errors.As(err, &fiberError):
		return fiberError.Code, fiberError.Message
	case errors.As(err, &validationErrors):
		return fiber.StatusBadRequest, err.Error()
	default:
		return fiber.StatusInternalServerError, err.Error()
	}
}

func ErrorHandler(c *fiber.Ctx, err error) error {
	code, message := StatusFor(err)

	c.Status(code)
	return c.JSON(fiber.Map{
		"error": message,
	})
}
