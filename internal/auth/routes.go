package auth

import (
	"github.com/go-chi/chi/v5"

	custommw "github.com/welldanyogia/auth-ledger/internal/middleware"
)

// RegisterRoutes registers the authentication routes. Register and login
// are public; everything else requires a valid session token.
func RegisterRoutes(r chi.Router, handler *AuthHandler, sessions *SessionRegistry) {
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", handler.Register)
		r.Post("/login", handler.Login)

		r.Group(func(r chi.Router) {
			r.Use(custommw.SessionAuth(sessions))
			r.Post("/logout", handler.Logout)
			r.Get("/me", handler.Me)
			r.Get("/history/{userID}", handler.History)
		})
	})
}
