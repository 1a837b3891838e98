package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/gkash/gkash_api/internal/apperr"
)

// DefaultCost matches the work factor credentials were historically hashed with.
const DefaultCost = 10

// Vault hashes and verifies PINs. Hashes are one-way; the vault never sees
// a PIN it did not just receive from the caller.
type Vault struct {
	cost int
}

// NewVault builds a bcrypt vault. Costs outside bcrypt's range fall back to DefaultCost.
func NewVault(cost int) *Vault {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Vault{cost: cost}
}

// Hash returns the bcrypt hash of pin.
func (v *Vault) Hash(pin string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pin), v.cost)
}

// Verify reports an unauthorized error when pin does not match hash.
func (v *Vault) Verify(hash []byte, pin string) error {
	if len(hash) == 0 {
		return apperr.Unauthorized("invalid credentials")
	}
	err := bcrypt.CompareHashAndPassword(hash, []byte(pin))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return apperr.Unauthorized("invalid credentials")
	}
	return err
}
