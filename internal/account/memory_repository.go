package account

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/gkash/gkash_api/internal/apperr"
)

type storedAccount struct {
	Account
	seq uint64
}

// MemoryRepository keeps accounts in process. It also serves as the balance
// store of the in-memory transaction processor.
type MemoryRepository struct {
	mu       sync.Mutex
	accounts map[string]storedAccount
	seq      uint64
}

// NewMemoryRepository constructs an in-memory repository for tests and local runs.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[string]storedAccount)}
}

func (r *MemoryRepository) Create(_ context.Context, acct Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[acct.ID]; exists {
		return apperr.Conflict("account exists")
	}
	r.seq++
	r.accounts[acct.ID] = storedAccount{Account: acct, seq: r.seq}
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, ownerID, id string) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[id]
	if !ok || stored.OwnerID != ownerID {
		return Account{}, errNotFound
	}
	return stored.Account, nil
}

func (r *MemoryRepository) List(_ context.Context, ownerID string) ([]Account, error) {
	r.mu.Lock()
	owned := make([]storedAccount, 0)
	for _, stored := range r.accounts {
		if stored.OwnerID == ownerID {
			owned = append(owned, stored)
		}
	}
	r.mu.Unlock()

	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		}
		return owned[i].seq > owned[j].seq
	})
	accounts := make([]Account, len(owned))
	for i, stored := range owned {
		accounts[i] = stored.Account
	}
	return accounts, nil
}

func (r *MemoryRepository) Delete(_ context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[id]
	if !ok || stored.OwnerID != ownerID {
		return errNotFound
	}
	if !stored.Balance.IsZero() {
		return errNonZeroBalance
	}
	delete(r.accounts, id)
	return nil
}

// AdjustBalance applies delta to one of owner's accounts. commit runs inside
// the same critical section with the would-be balance; the balance is only
// stored when commit succeeds.
func (r *MemoryRepository) AdjustBalance(_ context.Context, accountID, ownerID string, delta decimal.Decimal, commit func(balance decimal.Decimal) error) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[accountID]
	if !ok || stored.OwnerID != ownerID {
		return decimal.Zero, errNotFound
	}
	next := stored.Balance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, apperr.InsufficientFunds("insufficient funds")
	}
	if next.GreaterThanOrEqual(MaxBalance) {
		return decimal.Zero, apperr.Validation("balance limit exceeded")
	}
	if err := commit(next); err != nil {
		return decimal.Zero, err
	}
	stored.Balance = next
	r.accounts[accountID] = stored
	return next, nil
}

// SeedBalance overwrites an account balance. Test helper.
func (r *MemoryRepository) SeedBalance(accountID string, balance decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.accounts[accountID]; ok {
		stored.Balance = balance
		r.accounts[accountID] = stored
	}
}
