package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/gkash/gkash_api/internal/apperr"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// ErrorHandler renders typed failures with their status and kind. Untyped
// errors are logged and answered with a generic internal error; the
// underlying message is only included when dev is set.
func ErrorHandler(logger *slog.Logger, dev bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		requestID, _ := c.Locals(requestIDHeader).(string)

		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			body := errorBody{Error: string(appErr.Kind), Message: appErr.Message}
			if appErr.Kind == apperr.KindUpstream {
				logger.Warn("upstream failure", slog.String("request_id", requestID), slog.Any("error", err))
				if dev && appErr.Err != nil {
					body.Detail = appErr.Err.Error()
				}
			}
			return c.Status(apperr.HTTPStatus(appErr.Kind)).JSON(body)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(errorBody{Error: kindForStatus(fiberErr.Code), Message: fiberErr.Message})
		}

		logger.Error("unhandled error",
			slog.String("request_id", requestID),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Any("error", err))
		body := errorBody{Error: string(apperr.KindInternal), Message: "internal server error"}
		if dev {
			body.Detail = err.Error()
		}
		return c.Status(fiber.StatusInternalServerError).JSON(body)
	}
}

func kindForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return string(apperr.KindValidation)
	case fiber.StatusUnauthorized, fiber.StatusForbidden:
		return string(apperr.KindUnauthorized)
	case fiber.StatusNotFound:
		return string(apperr.KindNotFound)
	case fiber.StatusConflict:
		return string(apperr.KindConflict)
	case fiber.StatusTooManyRequests:
		return "rate_limited"
	case fiber.StatusRequestEntityTooLarge:
		return "payload_too_large"
	default:
		if status >= 500 {
			return string(apperr.KindInternal)
		}
		return "error"
	}
}
