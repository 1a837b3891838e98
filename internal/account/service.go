package account

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gkash/gkash_api/internal/apperr"
)

// Service exposes account operations for an owner.
type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

// NewService builds an account service instance.
func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// Create opens an account of the given product kind with a zero balance.
func (s *Service) Create(ctx context.Context, ownerID, kind string) (Account, error) {
	if ownerID == "" {
		return Account{}, apperr.Unauthorized("unauthorized")
	}
	k, err := ParseKind(kind)
	if err != nil {
		return Account{}, err
	}
	acct := Account{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Kind:      k,
		Balance:   decimal.Zero,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, acct); err != nil {
		return Account{}, err
	}
	s.log.Info("account opened", slog.String("account_id", acct.ID), slog.String("identity_id", ownerID), slog.String("kind", string(k)))
	return acct, nil
}

// List returns owner's accounts, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]Account, error) {
	return s.repo.List(ctx, ownerID)
}

// Get retrieves one of owner's accounts.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Account, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// Delete closes one of owner's accounts. Only empty accounts can be closed.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.log.Info("account closed", slog.String("account_id", id), slog.String("identity_id", ownerID))
	return nil
}
