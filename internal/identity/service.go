package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gkash/gkash_api/internal/apperr"
	"github.com/gkash/gkash_api/internal/metrics"
	"github.com/gkash/gkash_api/internal/verification"
)

// CredentialVault hashes and verifies PINs.
type CredentialVault interface {
	Hash(pin string) ([]byte, error)
	Verify(hash []byte, pin string) error
}

// Service manages registered identities: login, credential changes,
// profile and post-registration verification.
type Service struct {
	repo     Repository
	vault    CredentialVault
	analyzer *verification.Analyzer
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a new identity service. analyzer may be nil when
// document verification is not wired.
func NewService(repo Repository, vault CredentialVault, analyzer *verification.Analyzer, log *slog.Logger) *Service {
	return &Service{repo: repo, vault: vault, analyzer: analyzer, log: log, now: time.Now}
}

// Repository exposes the underlying store to the registration flow.
func (s *Service) Repository() Repository { return s.repo }

// Authenticate resolves nationalID and verifies pin. Unknown handles are
// reported as invalid credentials; identities that never finished
// registration get an incomplete registration error.
func (s *Service) Authenticate(ctx context.Context, nationalID, pin string) (Identity, error) {
	ident, err := s.authenticate(ctx, nationalID, pin)
	metrics.Login(err)
	return ident, err
}

func (s *Service) authenticate(ctx context.Context, nationalID, pin string) (Identity, error) {
	if nationalID == "" || pin == "" {
		return Identity{}, apperr.Validation("national_id and pin are required")
	}
	ident, err := s.repo.FindByNationalID(ctx, nationalID)
	if errors.Is(err, apperr.ErrNotFound) {
		return Identity{}, apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return Identity{}, err
	}
	if !ident.Authenticatable() {
		return Identity{}, apperr.IncompleteRegistration("registration is not complete, resume registration to set a pin")
	}
	if err := s.vault.Verify(ident.CredentialHash, pin); err != nil {
		s.log.Info("login rejected", slog.String("identity_id", ident.ID))
		return Identity{}, err
	}
	return ident, nil
}

// ChangeCredential replaces the PIN of a registered identity.
func (s *Service) ChangeCredential(ctx context.Context, id, current, next, confirm string) error {
	if current == "" || next == "" || confirm == "" {
		return apperr.Validation("current_pin, new_pin and confirm_pin are required")
	}
	if err := ValidatePIN(next); err != nil {
		return err
	}
	if next != confirm {
		return apperr.Validation("new pin and confirmation do not match")
	}
	if next == current {
		return apperr.Validation("new pin must differ from the current pin")
	}
	ident, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !ident.Authenticatable() {
		return apperr.IncompleteRegistration("registration is not complete")
	}
	if err := s.vault.Verify(ident.CredentialHash, current); err != nil {
		return apperr.Unauthorized("current pin is incorrect")
	}
	hash, err := s.vault.Hash(next)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateCredential(ctx, id, hash); err != nil {
		return err
	}
	s.log.Info("credential changed", slog.String("identity_id", id))
	return nil
}

// Profile returns the identity behind a session.
func (s *Service) Profile(ctx context.Context, id string) (Identity, error) {
	return s.repo.FindByID(ctx, id)
}

// SubmitVerification analyses a document and selfie for a registered
// identity. The name check matches the identity's display name against the
// document text.
func (s *Service) SubmitVerification(ctx context.Context, id string, document, selfie verification.Image) (verification.Record, error) {
	if s.analyzer == nil {
		return verification.Record{}, apperr.Upstream("document verification unavailable", nil)
	}
	if len(document.Data) == 0 || len(selfie.Data) == 0 {
		return verification.Record{}, apperr.Validation("document and selfie images are required")
	}
	ident, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return verification.Record{}, err
	}

	ins, err := s.analyzer.Inspect(ctx, document, selfie)
	if err != nil {
		return verification.Record{}, err
	}
	images, err := s.analyzer.Store(ctx, id, document, selfie)
	if err != nil {
		return verification.Record{}, err
	}

	record := verification.NewRecord(ins, images, ins.Extraction.ChecksAgainstName(ident.DisplayName), s.now())
	if err := s.repo.UpdateVerification(ctx, id, record); err != nil {
		return verification.Record{}, err
	}
	metrics.VerificationScore(record.Score)
	s.log.Info("verification decided",
		slog.String("identity_id", id),
		slog.Int("score", record.Score),
		slog.String("status", string(record.Status)))
	return record, nil
}

// VerificationStatus returns the stored verification record.
func (s *Service) VerificationStatus(ctx context.Context, id string) (verification.Record, error) {
	ident, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return verification.Record{}, err
	}
	if ident.Verification.Status == "" {
		return verification.NotSubmitted(), nil
	}
	return ident.Verification, nil
}

// PurgeIncomplete deletes identities that did not finish registration and
// were created more than olderThan ago.
func (s *Service) PurgeIncomplete(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff, err := s.staleCutoff(olderThan)
	if err != nil {
		return 0, err
	}
	removed, err := s.repo.DeleteIncomplete(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.log.Info("incomplete registrations purged", slog.Int64("removed", removed), slog.Time("cutoff", cutoff))
	return removed, nil
}

// CountIncomplete reports how many identities PurgeIncomplete would delete.
func (s *Service) CountIncomplete(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff, err := s.staleCutoff(olderThan)
	if err != nil {
		return 0, err
	}
	return s.repo.CountIncomplete(ctx, cutoff)
}

func (s *Service) staleCutoff(olderThan time.Duration) (time.Time, error) {
	if olderThan <= 0 {
		return time.Time{}, apperr.Validation("older-than must be positive")
	}
	return s.now().Add(-olderThan), nil
}

// ValidatePIN accepts exactly four ASCII digits.
func ValidatePIN(pin string) error {
	if len(pin) != 4 {
		return apperr.Validation("pin must be exactly 4 digits")
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return apperr.Validation("pin must be exactly 4 digits")
		}
	}
	return nil
}
