package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/gkash/gkash_api/internal/apperr"
	"github.com/gkash/gkash_api/internal/identity"
)

// Handler exposes the login endpoint.
type Handler struct {
	ids *identity.Service
	svc *Service
}

func NewHandler(ids *identity.Service, svc *Service) *Handler {
	return &Handler{ids: ids, svc: svc}
}

type loginRequest struct {
	NationalID string `json:"national_id"`
	PIN        string `json:"pin"`
}

// Login validates credentials and returns a full session token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	ident, err := h.ids.Authenticate(c.UserContext(), req.NationalID, req.PIN)
	if err != nil {
		return err
	}
	session, err := h.svc.Session(ident.ID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":    true,
		"token":      session.Value,
		"expires_at": session.ExpiresAt,
		"user":       ident.Summary(),
	})
}
