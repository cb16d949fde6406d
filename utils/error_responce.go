package utils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/meinhoongagan/home-services/logger"
	"github.com/meinhoongagan/home-services/store"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Fail writes an error response with the given status.
func Fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorResponse{Success: false, Message: message})
}

// StoreError maps a store error onto the HTTP taxonomy. Validation errors
// carry their own detail and fallback is used for not found and conflict.
// Unexpected errors are logged and reported as a generic 500.
func StoreError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, store.ErrValidation), errors.Is(err, store.ErrInvalidTransition):
		return Fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNoProvider):
		return Fail(c, fiber.StatusNotFound, "No provider found for this service")
	case errors.Is(err, store.ErrNotFound):
		return Fail(c, fiber.StatusNotFound, fallback)
	case errors.Is(err, store.ErrConflict):
		return Fail(c, fiber.StatusConflict, fallback)
	}
	logger.Log.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return Fail(c, fiber.StatusInternalServerError, "Internal server error")
}
