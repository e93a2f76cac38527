package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/lmercadier/sentinelle/internal/auth"
	"github.com/lmercadier/sentinelle/internal/handlers"
	"github.com/lmercadier/sentinelle/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	securityHandler *handlers.SecurityHandler,
	adminHandler *handlers.AdminHandler,
	tokenManager *auth.TokenManager,
) {
	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(middleware.DefaultCheckRateLimit())).
		Post("/api/security/check", securityHandler.Check)
	router.With(middleware.RateLimitByIP(middleware.DefaultAdminRateLimit())).
		Post("/api/admin/login", adminHandler.Login)

	// Admin routes - admin token required
	router.Route("/api/admin/security", func(r chi.Router) {
		r.Use(auth.RequireAdmin(tokenManager))

		r.Get("/blocks", adminHandler.ListBlocks)
		r.Post("/blocks", adminHandler.AddBlock)
		r.Delete("/blocks/{id}", adminHandler.RemoveBlock)
		r.Post("/unlock", adminHandler.UnlockAccount)
		r.Get("/identities/{identity}", adminHandler.GetIdentityOverview)
	})
}
