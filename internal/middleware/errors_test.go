package middleware

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkash/gkash_api/internal/apperr"
	"github.com/gkash/gkash_api/internal/logging"
)

func renderError(t *testing.T, dev bool, failure error) (int, errorBody) {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Discard(), dev)})
	app.Get("/", func(*fiber.Ctx) error { return failure })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestErrorHandlerMapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{apperr.Validation("pin must be exactly 4 digits"), fiber.StatusBadRequest, "validation"},
		{apperr.Conflict("phone number already registered"), fiber.StatusConflict, "conflict"},
		{apperr.InsufficientFunds("insufficient funds"), fiber.StatusBadRequest, "insufficient_funds"},
		{apperr.IncompleteRegistration("registration is not complete"), fiber.StatusBadRequest, "incomplete_registration"},
		{apperr.NotFound("account not found"), fiber.StatusNotFound, "not_found"},
		{apperr.Unauthorized("invalid credentials"), fiber.StatusUnauthorized, "unauthorized"},
		{fiber.NewError(fiber.StatusTooManyRequests, "slow down"), fiber.StatusTooManyRequests, "rate_limited"},
	}
	for _, tc := range cases {
		status, body := renderError(t, false, tc.err)
		assert.Equal(t, tc.status, status, tc.kind)
		assert.Equal(t, tc.kind, body.Error)
		assert.NotEmpty(t, body.Message)
	}
}

func TestErrorHandlerHidesInternalDetailOutsideDev(t *testing.T) {
	failure := errors.New("pq: connection refused on 10.0.0.4")

	status, body := renderError(t, false, failure)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "internal", body.Error)
	assert.Empty(t, body.Detail)

	_, body = renderError(t, true, failure)
	assert.Equal(t, failure.Error(), body.Detail)
}

func TestErrorHandlerUpstream(t *testing.T) {
	status, body := renderError(t, false, apperr.Upstream("upload document image", errors.New("timeout")))
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, "upstream", body.Error)
	assert.Equal(t, "upload document image", body.Message)
	assert.Empty(t, body.Detail)
}
