package handlers

import (
	"errors"

	"github.com/campuslink/moderation-backend/internal/dto"
	"github.com/campuslink/moderation-backend/internal/services"
	"github.com/campuslink/moderation-backend/internal/workflow"
	"github.com/gofiber/fiber/v2"
)

// respondWorkflowError maps the workflow error taxonomy onto HTTP statuses.
// Business rejections carry their message through; infrastructure failures
// get a generic body.
func respondWorkflowError(c *fiber.Ctx, err error) error {
	var code int
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, workflow.ErrForbidden):
		code = fiber.StatusForbidden
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrAlreadyTerminal),
		errors.Is(err, workflow.ErrConflict):
		code = fiber.StatusConflict
	case errors.Is(err, services.ErrContentRejected):
		code = fiber.StatusBadRequest
	case errors.Is(err, workflow.ErrStoreUnavailable):
		code = fiber.StatusServiceUnavailable
	default:
		code = fiber.StatusInternalServerError
	}

	message := err.Error()
	if code >= 500 {
		message = "Internal server error"
	}
	return c.Status(code).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
}
