package handlers

import (
	"errors"
	"log/slog"

	"github.com/eventbook/auth-service/internal/apperr"
	"github.com/eventbook/auth-service/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// respondError maps the error taxonomy to HTTP statuses. Internal causes are
// logged and never echoed to the client.
func respondError(c *fiber.Ctx, err error) error {
	if ve, ok := apperr.AsValidation(err); ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:      true,
			Message:    "Validation failed",
			Violations: ve.Violations,
		})
	}

	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, apperr.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, apperr.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, apperr.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	slog.Error("unhandled service error", "method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

// sessionMeta captures the requesting device's address and agent for the
// stored session row.
func sessionMeta(c *fiber.Ctx) dto.SessionMeta {
	return dto.SessionMeta{
		IPAddress: c.IP(),
		UserAgent: c.Get("User-Agent"),
	}
}
