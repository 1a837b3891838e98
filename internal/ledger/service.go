package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gkash/gkash_api/internal/account"
	"github.com/gkash/gkash_api/internal/apperr"
	"github.com/gkash/gkash_api/internal/metrics"
)

// Service is the transaction processor.
type Service struct {
	ledger Ledger
	log    *slog.Logger
	now    func() time.Time
}

// NewService builds a transaction processor over ledger.
func NewService(ledger Ledger, log *slog.Logger) *Service {
	return &Service{ledger: ledger, log: log, now: time.Now}
}

// ApplyInput is a requested balance mutation.
type ApplyInput struct {
	OwnerID   string
	AccountID string
	Kind      string
	Amount    decimal.Decimal
}

// Result is the committed transaction and the balance it produced.
type Result struct {
	Transaction Transaction     `json:"transaction"`
	Balance     decimal.Decimal `json:"new_balance"`
}

// Apply validates and posts a deposit or withdrawal against one of the
// owner's accounts. Nothing is mutated when validation fails.
func (s *Service) Apply(ctx context.Context, in ApplyInput) (Result, error) {
	kind, err := ParseKind(in.Kind)
	if err != nil {
		metrics.Transaction("invalid", err)
		return Result{}, err
	}
	res, err := s.apply(ctx, kind, in)
	metrics.Transaction(string(kind), err)
	return res, err
}

func (s *Service) apply(ctx context.Context, kind Kind, in ApplyInput) (Result, error) {
	if err := validateAmount(in.Amount); err != nil {
		return Result{}, err
	}
	if in.AccountID == "" {
		return Result{}, apperr.Validation("account_id is required")
	}

	txn := Transaction{
		ID:         uuid.NewString(),
		OwnerID:    in.OwnerID,
		AccountID:  in.AccountID,
		Kind:       kind,
		Amount:     in.Amount,
		Status:     StatusCompleted,
		OccurredAt: s.now().UTC(),
	}
	balance, err := s.ledger.Post(ctx, txn)
	if err != nil {
		return Result{}, err
	}
	s.log.Info("transaction posted",
		slog.String("transaction_id", txn.ID),
		slog.String("account_id", txn.AccountID),
		slog.String("identity_id", txn.OwnerID),
		slog.String("kind", string(kind)),
		slog.String("amount", txn.Amount.String()))
	return Result{Transaction: txn, Balance: balance}, nil
}

// History lists owner's transactions newest first. accountID may be empty.
func (s *Service) History(ctx context.Context, ownerID, accountID string) ([]Transaction, error) {
	return s.ledger.History(ctx, ownerID, accountID)
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperr.Validation("amount must be greater than zero")
	}
	if !amount.Equal(amount.Round(2)) {
		return apperr.Validation("amount supports at most two decimal places")
	}
	if amount.GreaterThanOrEqual(account.MaxBalance) {
		return apperr.Validation("amount is too large")
	}
	return nil
}
