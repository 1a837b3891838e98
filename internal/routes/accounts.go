package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gkash/gkash_api/internal/account"
	"github.com/gkash/gkash_api/internal/ledger"
)

// RegisterAccountRoutes wires investment account endpoints.
func RegisterAccountRoutes(r fiber.Router, h *account.Handler) {
	r.Post("/accounts", h.Create)
	r.Get("/accounts", h.List)
	r.Get("/accounts/:id", h.Get)
	r.Delete("/accounts/:id", h.Delete)
}

// RegisterTransactionRoutes wires deposit/withdraw and history endpoints.
// Posting is wrapped by idempotent when one is supplied.
func RegisterTransactionRoutes(r fiber.Router, h *ledger.Handler, idempotent fiber.Handler) {
	if idempotent != nil {
		r.Post("/transactions", idempotent, h.Create)
	} else {
		r.Post("/transactions", h.Create)
	}
	r.Get("/transactions", h.List)
}
