package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gkash/gkash_api/internal/auth"
	"github.com/gkash/gkash_api/internal/identity"
	"github.com/gkash/gkash_api/internal/registration"
)

// AuthHandlers groups the handlers mounted under /auth.
type AuthHandlers struct {
	Registration *registration.Handler
	Login        *auth.Handler
	Identity     *identity.Handler
}

// RegisterAuthRoutes wires registration, login and PIN change endpoints.
// Registration steps authenticate with their own scoped tokens.
func RegisterAuthRoutes(r fiber.Router, h AuthHandlers, rateLimiter, session fiber.Handler) {
	group := r.Group("/auth")

	register := group.Group("/register")
	register.Post("/start", h.Registration.Start)
	register.Post("/phone", h.Registration.BindPhone)
	register.Post("/verify-otp", h.Registration.VerifyOtp)
	register.Post("/pin", h.Registration.SetPIN)

	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login.Login)
	} else {
		group.Post("/login", h.Login.Login)
	}
	group.Post("/change-pin", session, h.Identity.ChangePIN)
}
