package identity

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/gkash/gkash_api/internal/apperr"
	"github.com/gkash/gkash_api/internal/verification"
)

// Handler exposes identity endpoints for a logged-in session.
type Handler struct {
	service *Service
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Me returns the session identity's profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	id, err := sessionIdentity(c)
	if err != nil {
		return err
	}
	ident, err := h.service.Profile(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"user": ident.Summary()})
}

type changePINRequest struct {
	CurrentPIN string `json:"current_pin"`
	NewPIN     string `json:"new_pin"`
	ConfirmPIN string `json:"confirm_pin"`
}

// ChangePIN replaces the session identity's PIN.
func (h *Handler) ChangePIN(c *fiber.Ctx) error {
	id, err := sessionIdentity(c)
	if err != nil {
		return err
	}
	var req changePINRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := h.service.ChangeCredential(c.UserContext(), id, req.CurrentPIN, req.NewPIN, req.ConfirmPIN); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "message": "pin changed"})
}

type verificationResponse struct {
	Status   verification.Status `json:"status"`
	Score    int                 `json:"score"`
	Verified bool                `json:"verified"`
	Checks   verification.Checks `json:"checks"`
	Record   verification.Record `json:"verification"`
}

func toVerificationResponse(rec verification.Record) verificationResponse {
	return verificationResponse{
		Status:   rec.Status,
		Score:    rec.Score,
		Verified: rec.Verified(),
		Checks:   rec.Checks,
		Record:   rec,
	}
}

// SubmitVerification accepts a multipart document and selfie.
func (h *Handler) SubmitVerification(c *fiber.Ctx) error {
	id, err := sessionIdentity(c)
	if err != nil {
		return err
	}
	document, selfie, err := ImagesFromForm(c)
	if err != nil {
		return err
	}
	rec, err := h.service.SubmitVerification(c.UserContext(), id, document, selfie)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toVerificationResponse(rec))
}

// VerificationStatus reports the stored verification outcome.
func (h *Handler) VerificationStatus(c *fiber.Ctx) error {
	id, err := sessionIdentity(c)
	if err != nil {
		return err
	}
	rec, err := h.service.VerificationStatus(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toVerificationResponse(rec))
}

// ImagesFromForm reads the "document" and "selfie" multipart files.
func ImagesFromForm(c *fiber.Ctx) (verification.Image, verification.Image, error) {
	docHeader, err := c.FormFile("document")
	if err != nil {
		return verification.Image{}, verification.Image{}, apperr.Validation("document image is required")
	}
	selfieHeader, err := c.FormFile("selfie")
	if err != nil {
		return verification.Image{}, verification.Image{}, apperr.Validation("selfie image is required")
	}
	document, err := verification.ImageFromUpload(docHeader)
	if err != nil {
		return verification.Image{}, verification.Image{}, err
	}
	selfie, err := verification.ImageFromUpload(selfieHeader)
	if err != nil {
		return verification.Image{}, verification.Image{}, err
	}
	return document, selfie, nil
}

func sessionIdentity(c *fiber.Ctx) (string, error) {
	id, _ := c.Locals("identity_id").(string)
	if id == "" {
		return "", apperr.Unauthorized("unauthorized")
	}
	return id, nil
}
