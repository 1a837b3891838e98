package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gkash/gkash_api/internal/advisor"
)

// RegisterAdvisorRoutes wires the financial advisor endpoints.
func RegisterAdvisorRoutes(r fiber.Router, h *advisor.Handler) {
	r.Post("/advisor/chat", h.Chat)
	r.Post("/advisor/financial-advice", h.Advice)
	r.Post("/advisor/reset", h.Reset)
	r.Delete("/advisor/sessions/:id", h.DeleteSession)
}
