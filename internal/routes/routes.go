package routes

import (
	"time"

	"github.com/eventbook/auth-service/internal/config"
	"github.com/eventbook/auth-service/internal/handlers"
	"github.com/eventbook/auth-service/internal/middleware"
	"github.com/eventbook/auth-service/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	permissions *services.PermissionService,
	authHandler *handlers.AuthHandler,
	oauthHandler *handlers.OAuthHandler,
	rbacHandler *handlers.RBACHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/send-verification", authHandler.SendVerification)
	auth.Post("/verify-email", authHandler.VerifyEmail)
	auth.Post("/oauth/:provider", oauthHandler.Login)

	// Protected routes (JWT required) - applied per route so the middleware
	// never touches the public surface.
	jwt := middleware.JWTProtected(cfg)
	api.Post("/auth/logout", jwt, authHandler.Logout)
	api.Post("/auth/change-password", jwt, authHandler.ChangePassword)
	api.Get("/auth/me", jwt, authHandler.Me)
	api.Get("/auth/sessions", jwt, authHandler.Sessions)
	api.Delete("/auth/account", jwt, authHandler.DeleteAccount)
	api.Get("/auth/oauth", jwt, oauthHandler.List)
	api.Post("/auth/oauth/:provider/link", jwt, oauthHandler.Link)
	api.Delete("/auth/oauth/:provider", jwt, oauthHandler.Unlink)
	api.Get("/me/permissions", jwt, rbacHandler.MyPermissions)

	// Admin RBAC management (JWT + users.update capability)
	admin := api.Group("/admin", jwt, middleware.PermissionRequired(permissions, "users", "update"))
	admin.Get("/users/:id/permissions", rbacHandler.UserPermissions)
	admin.Get("/users/:id/roles", rbacHandler.UserRoles)
	admin.Post("/users/:id/roles", rbacHandler.AssignRole)
	admin.Delete("/users/:id/roles/:role_id", rbacHandler.RemoveRole)
}
