package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gkash/gkash_api/internal/identity"
)

// RegisterIdentityRoutes wires profile and verification endpoints.
func RegisterIdentityRoutes(r fiber.Router, h *identity.Handler) {
	r.Get("/me", h.Me)
	r.Post("/verification/submit", h.SubmitVerification)
	r.Get("/verification/status", h.VerificationStatus)
}
