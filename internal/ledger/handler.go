package ledger

import (
	"encoding/json"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/gkash/gkash_api/internal/apperr"
)

// Handler exposes the transaction endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a transaction HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	AccountID string          `json:"account_id"`
	Type      string          `json:"type"`
	Amount    json.RawMessage `json:"amount"`
}

// Create applies a deposit or withdrawal for the session identity. The
// amount may be a JSON number or a numeric string.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if len(req.Amount) == 0 {
		return apperr.Validation("amount is required")
	}
	var amount decimal.Decimal
	if err := amount.UnmarshalJSON(req.Amount); err != nil {
		return apperr.Validation("amount must be a number")
	}
	res, err := h.service.Apply(c.UserContext(), ApplyInput{
		OwnerID:   ownerOf(c),
		AccountID: req.AccountID,
		Kind:      req.Type,
		Amount:    amount,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(res)
}

// List returns the session identity's transactions, newest first.
func (h *Handler) List(c *fiber.Ctx) error {
	txns, err := h.service.History(c.UserContext(), ownerOf(c), c.Query("account_id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": txns, "count": len(txns)})
}

func ownerOf(c *fiber.Ctx) string {
	id, _ := c.Locals("identity_id").(string)
	return id
}
