package advisor

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/gkash/gkash_api/internal/apperr"
)

// Handler exposes the advisor over HTTP. Conversations belong to the
// session identity.
type Handler struct {
	service *Service
}

// NewHandler builds an advisor HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// Chat answers a message within a conversation.
func (h *Handler) Chat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	reply, err := h.service.Chat(c.UserContext(), ownerOf(c), req.SessionID, req.Message)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "reply": reply})
}

type adviceRequest struct {
	Query       string  `json:"query"`
	Message     string  `json:"message"`
	Question    string  `json:"question"`
	UserProfile Profile `json:"userProfile"`
}

// Advice answers a one-off question tailored to the supplied profile.
func (h *Handler) Advice(c *fiber.Ctx) error {
	var req adviceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	question := req.Query
	if question == "" {
		question = req.Message
	}
	if question == "" {
		question = req.Question
	}
	reply, err := h.service.Advice(c.UserContext(), question, req.UserProfile)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "reply": reply})
}

type sessionRequest struct {
	SessionID string `json:"sessionId"`
}

// Reset clears a conversation.
func (h *Handler) Reset(c *fiber.Ctx) error {
	var req sessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperr.Validation("invalid request body")
		}
	}
	sessionID, err := h.service.Reset(c.UserContext(), ownerOf(c), req.SessionID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "session_id": sessionID})
}

// DeleteSession removes a named conversation.
func (h *Handler) DeleteSession(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if err := h.service.DeleteSession(c.UserContext(), ownerOf(c), sessionID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func ownerOf(c *fiber.Ctx) string {
	id, _ := c.Locals("identity_id").(string)
	return id
}
