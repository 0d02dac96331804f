package middleware

import (
	"github.com/eventbook/auth-service/internal/dto"
	"github.com/eventbook/auth-service/internal/services"
	"github.com/gofiber/fiber/v2"
)

// PermissionRequired gates a route on a resource+action capability resolved
// through the user's roles. Runs after JWTProtected.
func PermissionRequired(permissions *services.PermissionService, resource, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := UserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		ok, err := permissions.HasResourcePermission(c.Context(), userID, resource, action)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Insufficient permissions",
			})
		}
		return c.Next()
	}
}
