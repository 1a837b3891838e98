package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gkash/gkash_api/internal/apperr"
)

// Kind is the direction of a balance mutation.
type Kind string

const (
	KindDeposit  Kind = "deposit"
	KindWithdraw Kind = "withdraw"
)

// ParseKind accepts exactly "deposit" or "withdraw".
func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case KindDeposit, KindWithdraw:
		return Kind(raw), nil
	default:
		return "", apperr.Validation("type must be deposit or withdraw")
	}
}

// Status of a logged transaction.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
)

// Transaction is one entry of the append-only log.
type Transaction struct {
	ID         string          `json:"id"`
	OwnerID    string          `json:"owner_id"`
	AccountID  string          `json:"account_id"`
	Kind       Kind            `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Status     Status          `json:"status"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Delta is the signed balance change the transaction applies.
func (t Transaction) Delta() decimal.Decimal {
	if t.Kind == KindWithdraw {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Ledger applies a transaction to its account balance and appends it to
// the log as one unit. Post returns the account balance after the change.
type Ledger interface {
	Post(ctx context.Context, txn Transaction) (decimal.Decimal, error)
	History(ctx context.Context, ownerID, accountID string) ([]Transaction, error)
}

// Balances is an account balance store that can run a commit step inside
// its per-account critical section.
type Balances interface {
	AdjustBalance(ctx context.Context, accountID, ownerID string, delta decimal.Decimal, commit func(balance decimal.Decimal) error) (decimal.Decimal, error)
}
