package identity

import (
	"context"
	"sync"
	"time"

	"github.com/gkash/gkash_api/internal/apperr"
	"github.com/gkash/gkash_api/internal/verification"
)

type memoryRepository struct {
	mu         sync.RWMutex
	identities map[string]Identity
	byNational map[string]string
	byPhone    map[string]string
	now        func() time.Time
}

// NewMemoryRepository builds an in-memory identity store for tests and local runs.
// Uniqueness of national id and phone is enforced under the store lock.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		identities: make(map[string]Identity),
		byNational: make(map[string]string),
		byPhone:    make(map[string]string),
		now:        time.Now,
	}
}

func (r *memoryRepository) Create(_ context.Context, ident Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.identities[ident.ID]; exists {
		return apperr.Conflict("identity already registered")
	}
	if ident.NationalID != "" {
		if _, exists := r.byNational[ident.NationalID]; exists {
			return apperr.Conflict("identity already registered")
		}
	}
	if ident.Phone != "" {
		if _, exists := r.byPhone[ident.Phone]; exists {
			return apperr.Conflict("phone number already registered")
		}
		r.byPhone[ident.Phone] = ident.ID
	}
	if ident.NationalID != "" {
		r.byNational[ident.NationalID] = ident.ID
	}
	r.identities[ident.ID] = clone(ident)
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ident, ok := r.identities[id]
	if !ok {
		return Identity{}, apperr.NotFound("identity not found")
	}
	return clone(ident), nil
}

func (r *memoryRepository) FindByNationalID(_ context.Context, nationalID string) (Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byNational[nationalID]
	if !ok {
		return Identity{}, apperr.NotFound("identity not found")
	}
	return clone(r.identities[id]), nil
}

func (r *memoryRepository) PhoneTaken(_ context.Context, phone, exceptID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	holder, ok := r.byPhone[phone]
	return ok && holder != exceptID, nil
}

func (r *memoryRepository) SetPhone(_ context.Context, id, pendingToken string, update PhoneUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, err := r.pending(id, pendingToken)
	if err != nil {
		return err
	}
	if holder, ok := r.byPhone[update.Phone]; ok && holder != id {
		return apperr.Conflict("phone number already registered")
	}
	if ident.Phone != "" {
		delete(r.byPhone, ident.Phone)
	}
	r.byPhone[update.Phone] = id
	ident.Phone = update.Phone
	ident.PhoneVerified = update.Verified
	ident.PendingSessionToken = update.NextToken
	r.save(ident)
	return nil
}

func (r *memoryRepository) MarkPhoneVerified(_ context.Context, id, pendingToken, nextToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, err := r.pending(id, pendingToken)
	if err != nil {
		return err
	}
	if ident.Phone == "" {
		return errSessionLost
	}
	ident.PhoneVerified = true
	ident.PendingSessionToken = nextToken
	r.save(ident)
	return nil
}

func (r *memoryRepository) CompleteRegistration(_ context.Context, id, pendingToken string, credentialHash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, err := r.pending(id, pendingToken)
	if err != nil {
		return err
	}
	if !ident.PhoneVerified {
		return errSessionLost
	}
	ident.CredentialHash = append([]byte(nil), credentialHash...)
	ident.CredentialSet = true
	ident.RegistrationComplete = true
	ident.PendingSessionToken = ""
	r.save(ident)
	return nil
}

func (r *memoryRepository) UpdateCredential(_ context.Context, id string, credentialHash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, ok := r.identities[id]
	if !ok || !ident.CredentialSet {
		return apperr.NotFound("identity not found")
	}
	ident.CredentialHash = append([]byte(nil), credentialHash...)
	r.save(ident)
	return nil
}

func (r *memoryRepository) UpdateVerification(_ context.Context, id string, record verification.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, ok := r.identities[id]
	if !ok {
		return apperr.NotFound("identity not found")
	}
	ident.Verification = record
	r.save(ident)
	return nil
}

func (r *memoryRepository) CountIncomplete(_ context.Context, createdBefore time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, ident := range r.identities {
		if !ident.RegistrationComplete && ident.CreatedAt.Before(createdBefore) {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepository) DeleteIncomplete(_ context.Context, createdBefore time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, ident := range r.identities {
		if ident.RegistrationComplete || !ident.CreatedAt.Before(createdBefore) {
			continue
		}
		delete(r.identities, id)
		if ident.NationalID != "" {
			delete(r.byNational, ident.NationalID)
		}
		if ident.Phone != "" {
			delete(r.byPhone, ident.Phone)
		}
		removed++
	}
	return removed, nil
}

// pending returns the identity when token is its outstanding registration token.
func (r *memoryRepository) pending(id, token string) (Identity, error) {
	ident, ok := r.identities[id]
	if !ok || ident.RegistrationComplete || token == "" || ident.PendingSessionToken != token {
		return Identity{}, errSessionLost
	}
	return ident, nil
}

func (r *memoryRepository) save(ident Identity) {
	ident.UpdatedAt = r.now().UTC()
	r.identities[ident.ID] = ident
}

func clone(ident Identity) Identity {
	ident.CredentialHash = append([]byte(nil), ident.CredentialHash...)
	return ident
}
