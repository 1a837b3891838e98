package registration

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gkash/gkash_api/internal/apperr"
	"github.com/gkash/gkash_api/internal/auth"
	"github.com/gkash/gkash_api/internal/identity"
)

// Handler exposes the registration steps.
type Handler struct {
	service *Service
}

// NewHandler constructs a registration HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type tokenResponse struct {
	Token     string       `json:"token"`
	Purpose   auth.Purpose `json:"purpose"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func newTokenResponse(t auth.Token, purpose auth.Purpose) *tokenResponse {
	return &tokenResponse{Token: t.Value, Purpose: purpose, ExpiresAt: t.ExpiresAt}
}

// Start handles the multipart document upload.
func (h *Handler) Start(c *fiber.Ctx) error {
	document, selfie, err := identity.ImagesFromForm(c)
	if err != nil {
		return err
	}
	res, err := h.service.Start(c.UserContext(), StartInput{
		Document:    document,
		Selfie:      selfie,
		DisplayName: c.FormValue("display_name"),
		NationalID:  c.FormValue("national_id"),
	})
	if err != nil {
		return err
	}
	rec := res.Identity.Verification
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success":      true,
		"message":      "document received, continue with phone number",
		"registration": newTokenResponse(res.Token, auth.PurposeCompleteRegistration),
		"user":         res.Identity.Summary(),
		"verification": fiber.Map{
			"score":    rec.Score,
			"status":   rec.Status,
			"verified": rec.Verified(),
			"checks":   rec.Checks,
			"extracted": fiber.Map{
				"name":          rec.Name,
				"national_id":   rec.NationalID,
				"date_of_birth": rec.DateOfBirth,
			},
		},
		"next_step": "phone",
	})
}

type bindPhoneRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// BindPhone attaches a phone number using the complete_registration token.
func (h *Handler) BindPhone(c *fiber.Ctx) error {
	var req bindPhoneRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	res, err := h.service.BindPhone(c.UserContext(), auth.BearerToken(c.Get(fiber.HeaderAuthorization)), req.PhoneNumber)
	if err != nil {
		return err
	}
	body := fiber.Map{
		"success":      true,
		"otp_required": res.OTPRequired,
		"user":         res.Identity.Summary(),
	}
	if res.NextToken != nil {
		body["registration"] = newTokenResponse(*res.NextToken, auth.PurposePINSetup)
		body["next_step"] = "pin"
	} else {
		body["next_step"] = "verify-otp"
	}
	return c.Status(http.StatusOK).JSON(body)
}

type verifyOtpRequest struct {
	Code string `json:"code"`
}

// VerifyOtp confirms the bound phone number.
func (h *Handler) VerifyOtp(c *fiber.Ctx) error {
	var req verifyOtpRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	next, err := h.service.VerifyOtp(c.UserContext(), auth.BearerToken(c.Get(fiber.HeaderAuthorization)), req.Code)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":      true,
		"registration": newTokenResponse(next, auth.PurposePINSetup),
		"next_step":    "pin",
	})
}

type setPINRequest struct {
	PIN string `json:"pin"`
}

// SetPIN completes registration and returns a session token.
func (h *Handler) SetPIN(c *fiber.Ctx) error {
	var req setPINRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	res, err := h.service.SetCredential(c.UserContext(), auth.BearerToken(c.Get(fiber.HeaderAuthorization)), req.PIN)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":    true,
		"message":    "registration complete",
		"token":      res.Session.Value,
		"expires_at": res.Session.ExpiresAt,
		"user":       res.Identity.Summary(),
	})
}

