package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/gkash/gkash_api/internal/apperr"
	"github.com/gkash/gkash_api/internal/auth"
	"github.com/gkash/gkash_api/internal/identity"
)

// identityLocal is the fiber local holding the authenticated identity id.
const identityLocal = "identity_id"

// SessionAuth accepts only full session tokens whose subject is still an
// authenticatable identity. Scoped registration tokens are rejected.
func SessionAuth(tokens *auth.Service, repo identity.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return apperr.Unauthorized("missing bearer token")
		}
		claims, err := tokens.Verify(raw, auth.PurposeSession)
		if err != nil {
			return err
		}

		ident, err := repo.FindByID(c.UserContext(), claims.Subject)
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Unauthorized("token invalidated")
		}
		if err != nil {
			return err
		}
		if !ident.Authenticatable() {
			return apperr.Unauthorized("token invalidated")
		}

		c.Locals(identityLocal, ident.ID)
		return c.Next()
	}
}
