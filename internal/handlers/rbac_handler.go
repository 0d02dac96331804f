package handlers

import (
	"github.com/eventbook/auth-service/internal/dto"
	"github.com/eventbook/auth-service/internal/middleware"
	"github.com/eventbook/auth-service/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type RBACHandler struct {
	permissionService *services.PermissionService
}

func NewRBACHandler(permissionService *services.PermissionService) *RBACHandler {
	return &RBACHandler{permissionService: permissionService}
}

// MyPermissions returns the caller's effective permission set.
func (h *RBACHandler) MyPermissions(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	resp, err := h.permissionService.GetUserPermissions(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *RBACHandler) UserPermissions(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user id")
	}

	resp, err := h.permissionService.GetUserPermissions(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *RBACHandler) UserRoles(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user id")
	}

	roles, err := h.permissionService.GetUserRoles(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(roles)
}

func (h *RBACHandler) AssignRole(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user id")
	}

	var req dto.AssignRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	role, err := h.permissionService.AssignRoleToUser(c.Context(), userID, req.RoleID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(role)
}

func (h *RBACHandler) RemoveRole(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user id")
	}
	roleID, err := uuid.Parse(c.Params("role_id"))
	if err != nil {
		return badRequest(c, "Invalid role id")
	}

	if err := h.permissionService.RemoveRoleFromUser(c.Context(), userID, roleID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Role removed"})
}
