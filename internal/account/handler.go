package account

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/gkash/gkash_api/internal/apperr"
)

// Handler exposes account HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds an account HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	AccountType string `json:"account_type"`
}

// Create opens an account for the session identity.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	acct, err := h.service.Create(c.UserContext(), ownerOf(c), req.AccountType)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"account": acct})
}

// List returns the session identity's accounts.
func (h *Handler) List(c *fiber.Ctx) error {
	accounts, err := h.service.List(c.UserContext(), ownerOf(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"accounts": accounts, "count": len(accounts)})
}

// Get returns one account.
func (h *Handler) Get(c *fiber.Ctx) error {
	acct, err := h.service.Get(c.UserContext(), ownerOf(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"account": acct})
}

// Delete closes one account.
func (h *Handler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), ownerOf(c), c.Params("id")); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true})
}

func ownerOf(c *fiber.Ctx) string {
	id, _ := c.Locals("identity_id").(string)
	return id
}
