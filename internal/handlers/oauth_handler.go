package handlers

import (
	"github.com/eventbook/auth-service/internal/dto"
	"github.com/eventbook/auth-service/internal/middleware"
	"github.com/eventbook/auth-service/internal/services"
	"github.com/gofiber/fiber/v2"
)

type OAuthHandler struct {
	oauthService *services.OAuthService
}

func NewOAuthHandler(oauthService *services.OAuthService) *OAuthHandler {
	return &OAuthHandler{oauthService: oauthService}
}

// Login handles POST /auth/oauth/:provider with a provider-signed id token.
func (h *OAuthHandler) Login(c *fiber.Ctx) error {
	provider := c.Params("provider")

	var req dto.OAuthLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.IDToken == "" {
		return badRequest(c, "id_token is required")
	}

	resp, err := h.oauthService.LoginWithIDToken(c.Context(), provider, &req, sessionMeta(c))
	if err != nil {
		return respondError(c, err)
	}
	if resp.Outcome == dto.OAuthOutcomeNewUser {
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
	return c.JSON(resp)
}

// Link attaches a provider identity to the authenticated user.
func (h *OAuthHandler) Link(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	provider := c.Params("provider")

	var req dto.OAuthLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.IDToken == "" {
		return badRequest(c, "id_token is required")
	}

	if err := h.oauthService.LinkWithIDToken(c.Context(), userID, provider, &req); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Account linked"})
}

func (h *OAuthHandler) Unlink(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	if err := h.oauthService.UnlinkAccount(c.Context(), userID, c.Params("provider")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Account unlinked"})
}

func (h *OAuthHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	accounts, err := h.oauthService.ListAccounts(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(accounts)
}
