package routes

import (
	"github.com/dwellio/dwellio-backend/internal/handlers"
	"github.com/dwellio/dwellio-backend/internal/middleware"
	"github.com/dwellio/dwellio-backend/internal/models"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(r *chi.Mux) {
	// Auth routes
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", handlers.Register)
		r.Post("/login", handlers.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/me", handlers.GetMe)
			r.Put("/profile", handlers.UpdateProfile)
			r.Post("/logout", handlers.Logout)
		})
	})

	// Property routes
	r.Route("/api/properties", func(r chi.Router) {
		// Public search and detail (auth optional, used for personalization)
		r.With(middleware.OptionalAuth).Get("/", handlers.ListProperties)
		r.With(middleware.OptionalAuth).Get("/{id}", handlers.GetProperty)

		// Contact the seller (no account required)
		r.Post("/{id}/inquiries", handlers.CreateInquiry)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/user/my-properties", handlers.GetMyProperties)
			r.Get("/user/favorites", handlers.GetFavorites)
			r.Post("/{id}/favorite", handlers.ToggleFavorite)
			r.Put("/{id}", handlers.UpdateProperty)
			r.Delete("/{id}", handlers.DeleteProperty)

			r.With(middleware.RequireRole(models.RoleSeller, models.RoleAdmin)).
				Post("/", handlers.CreateProperty)
		})
	})

	// Seller inbox
	r.With(middleware.RequireAuth, middleware.RequireRole(models.RoleSeller, models.RoleAdmin)).
		Get("/api/inquiries", handlers.GetMyInquiries)

	// WebSocket endpoint for the live listing feed
	r.Get("/ws/listings", handlers.ListingsFeed)
}
