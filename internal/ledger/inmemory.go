package ledger

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

type inMemoryLedger struct {
	balances Balances
	mu       sync.RWMutex
	entries  []Transaction
}

// NewInMemory creates a concurrency-safe in-memory ledger over balances.
// The log append happens inside the balance store's critical section, so a
// balance change is never visible without its entry.
func NewInMemory(balances Balances) Ledger {
	return &inMemoryLedger{balances: balances}
}

func (l *inMemoryLedger) Post(ctx context.Context, txn Transaction) (decimal.Decimal, error) {
	return l.balances.AdjustBalance(ctx, txn.AccountID, txn.OwnerID, txn.Delta(), func(decimal.Decimal) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.entries = append(l.entries, txn)
		return nil
	})
}

func (l *inMemoryLedger) History(_ context.Context, ownerID, accountID string) ([]Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := []Transaction{}
	for i := len(l.entries) - 1; i >= 0; i-- {
		entry := l.entries[i]
		if entry.OwnerID != ownerID || (accountID != "" && entry.AccountID != accountID) {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}
