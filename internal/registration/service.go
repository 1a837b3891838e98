// Package registration provisions identities in steps. Each step after the
// first requires the scoped token issued by the previous one, and every
// transition is applied only while that token is still the identity's
// pending session token, which makes each token single use.
package registration

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gkash/gkash_api/internal/apperr"
	"github.com/gkash/gkash_api/internal/auth"
	"github.com/gkash/gkash_api/internal/identity"
	"github.com/gkash/gkash_api/internal/metrics"
	"github.com/gkash/gkash_api/internal/verification"
)

// PhoneVerifier sends and checks one-time codes for a phone number. Check
// runs commit on a matching code and consumes the code only when commit
// succeeds.
type PhoneVerifier interface {
	Send(ctx context.Context, phone string) error
	Check(ctx context.Context, phone, code string, commit func() error) (bool, error)
}

// Service runs the registration state machine.
type Service struct {
	repo        identity.Repository
	vault       identity.CredentialVault
	tokens      *auth.Service
	analyzer    *verification.Analyzer
	otp         PhoneVerifier
	phoneDigits int
	log         *slog.Logger
	now         func() time.Time
}

// Options wires the state machine. OTP is nil when phone binding alone is
// accepted as proof of the number.
type Options struct {
	Repo        identity.Repository
	Vault       identity.CredentialVault
	Tokens      *auth.Service
	Analyzer    *verification.Analyzer
	OTP         PhoneVerifier
	PhoneDigits int
	Logger      *slog.Logger
}

// NewService builds a registration service.
func NewService(opts Options) *Service {
	digits := opts.PhoneDigits
	if digits <= 0 {
		digits = 10
	}
	return &Service{
		repo:        opts.Repo,
		vault:       opts.Vault,
		tokens:      opts.Tokens,
		analyzer:    opts.Analyzer,
		otp:         opts.OTP,
		phoneDigits: digits,
		log:         opts.Logger,
		now:         time.Now,
	}
}

// OTPRequired reports whether the phone step is followed by code verification.
func (s *Service) OTPRequired() bool { return s.otp != nil }

// StartInput carries the document and live capture images.
type StartInput struct {
	Document verification.Image
	Selfie   verification.Image
	// DisplayName and NationalID are used when the document does not yield
	// them. A registration without both is rejected.
	DisplayName string
	NationalID  string
}

// StartResult is the new identity and its complete_registration token.
type StartResult struct {
	Identity identity.Identity
	Token    auth.Token
}

// Start creates an identity from a document and selfie.
func (s *Service) Start(ctx context.Context, in StartInput) (StartResult, error) {
	res, err := s.start(ctx, in)
	metrics.RegistrationStep("start", err)
	return res, err
}

func (s *Service) start(ctx context.Context, in StartInput) (StartResult, error) {
	if len(in.Document.Data) == 0 || len(in.Selfie.Data) == 0 {
		return StartResult{}, apperr.Validation("document and selfie images are required")
	}

	ins, err := s.analyzer.Inspect(ctx, in.Document, in.Selfie)
	if err != nil {
		return StartResult{}, err
	}

	ext := ins.Extraction
	displayName := ext.Name.Value
	if !ext.Name.Present() {
		displayName = strings.TrimSpace(in.DisplayName)
	}
	if displayName == "" {
		return StartResult{}, apperr.Validation("no name could be read from the document, provide display_name")
	}
	nationalID := ext.NationalID.Value
	if !ext.NationalID.Present() {
		nationalID = strings.TrimSpace(in.NationalID)
		if nationalID == "" {
			return StartResult{}, apperr.Validation("no id number could be read from the document, provide national_id")
		}
		if !verification.ValidNationalID(nationalID) {
			return StartResult{}, apperr.Validation("national_id must be 7 or 8 digits")
		}
	}
	_, err = s.repo.FindByNationalID(ctx, nationalID)
	switch {
	case err == nil:
		return StartResult{}, apperr.Conflict("an identity with this id number is already registered")
	case !errors.Is(err, apperr.ErrNotFound):
		return StartResult{}, err
	}

	id := uuid.NewString()
	images, err := s.analyzer.Store(ctx, id, in.Document, in.Selfie)
	if err != nil {
		return StartResult{}, err
	}

	token, err := s.tokens.Issue(id, auth.PurposeCompleteRegistration)
	if err != nil {
		return StartResult{}, err
	}

	now := s.now().UTC()
	ident := identity.Identity{
		ID:                  id,
		DisplayName:         displayName,
		NationalID:          nationalID,
		DateOfBirth:         presentValue(ext.DateOfBirth),
		PendingSessionToken: token.Value,
		Verification:        verification.NewRecord(ins, images, ext.Checks(), now),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Create(ctx, ident); err != nil {
		return StartResult{}, err
	}

	metrics.VerificationScore(ident.Verification.Score)
	s.log.Info("registration started",
		slog.String("identity_id", id),
		slog.String("stage", string(ident.Stage())),
		slog.Int("verification_score", ident.Verification.Score),
		slog.Bool("extraction_failed", ext.Failed()))
	return StartResult{Identity: ident, Token: token}, nil
}

// BindPhoneResult tells the caller how to continue. NextToken is set when
// the phone is already trusted and the PIN step may follow.
type BindPhoneResult struct {
	Identity    identity.Identity
	OTPRequired bool
	NextToken   *auth.Token
}

// BindPhone attaches a phone number to the identity behind token.
func (s *Service) BindPhone(ctx context.Context, token, phone string) (BindPhoneResult, error) {
	res, err := s.bindPhone(ctx, token, phone)
	metrics.RegistrationStep("bind_phone", err)
	return res, err
}

func (s *Service) bindPhone(ctx context.Context, token, phone string) (BindPhoneResult, error) {
	ident, err := s.pendingIdentity(ctx, token, auth.PurposeCompleteRegistration)
	if err != nil {
		return BindPhoneResult{}, err
	}
	phone, err = s.normalisePhone(phone)
	if err != nil {
		return BindPhoneResult{}, err
	}
	taken, err := s.repo.PhoneTaken(ctx, phone, ident.ID)
	if err != nil {
		return BindPhoneResult{}, err
	}
	if taken {
		return BindPhoneResult{}, apperr.Conflict("phone number already registered")
	}

	update := identity.PhoneUpdate{Phone: phone, NextToken: token}
	var next *auth.Token
	if s.otp == nil {
		issued, err := s.tokens.Issue(ident.ID, auth.PurposePINSetup)
		if err != nil {
			return BindPhoneResult{}, err
		}
		update.Verified = true
		update.NextToken = issued.Value
		next = &issued
	}
	if err := s.repo.SetPhone(ctx, ident.ID, token, update); err != nil {
		return BindPhoneResult{}, err
	}
	ident.Phone = update.Phone
	ident.PhoneVerified = update.Verified
	ident.PendingSessionToken = update.NextToken

	if s.otp != nil {
		if err := s.otp.Send(ctx, phone); err != nil {
			return BindPhoneResult{}, apperr.Upstream("send verification code", err)
		}
	}
	s.log.Info("phone bound", slog.String("identity_id", ident.ID), slog.String("stage", string(ident.Stage())))
	return BindPhoneResult{Identity: ident, OTPRequired: s.otp != nil, NextToken: next}, nil
}

// VerifyOtp confirms the bound phone with a one-time code and returns the
// pin_setup token.
func (s *Service) VerifyOtp(ctx context.Context, token, code string) (auth.Token, error) {
	next, err := s.verifyOtp(ctx, token, code)
	metrics.RegistrationStep("verify_otp", err)
	return next, err
}

func (s *Service) verifyOtp(ctx context.Context, token, code string) (auth.Token, error) {
	if s.otp == nil {
		return auth.Token{}, apperr.Validation("phone verification codes are not enabled")
	}
	ident, err := s.pendingIdentity(ctx, token, auth.PurposeCompleteRegistration)
	if err != nil {
		return auth.Token{}, err
	}
	if ident.Phone == "" {
		return auth.Token{}, apperr.Validation("bind a phone number before verifying it")
	}
	code = strings.TrimSpace(code)
	if code == "" || !digitsOnly(code) {
		return auth.Token{}, apperr.Validation("code must be numeric")
	}

	next, err := s.tokens.Issue(ident.ID, auth.PurposePINSetup)
	if err != nil {
		return auth.Token{}, err
	}
	var commitErr error
	ok, err := s.otp.Check(ctx, ident.Phone, code, func() error {
		commitErr = s.repo.MarkPhoneVerified(ctx, ident.ID, token, next.Value)
		return commitErr
	})
	if commitErr != nil {
		return auth.Token{}, commitErr
	}
	if err != nil {
		return auth.Token{}, apperr.Upstream("check verification code", err)
	}
	if !ok {
		return auth.Token{}, apperr.Unauthorized("invalid or expired code")
	}
	s.log.Info("phone verified", slog.String("identity_id", ident.ID))
	return next, nil
}

// SetCredentialResult is the completed identity and its first session.
type SetCredentialResult struct {
	Identity identity.Identity
	Session  auth.Token
}

// SetCredential stores the PIN, completes registration and issues a full
// session. The pin_setup token is consumed, so a retry fails.
func (s *Service) SetCredential(ctx context.Context, token, pin string) (SetCredentialResult, error) {
	res, err := s.setCredential(ctx, token, pin)
	metrics.RegistrationStep("set_credential", err)
	return res, err
}

func (s *Service) setCredential(ctx context.Context, token, pin string) (SetCredentialResult, error) {
	ident, err := s.pendingIdentity(ctx, token, auth.PurposePINSetup)
	if err != nil {
		return SetCredentialResult{}, err
	}
	if err := identity.ValidatePIN(pin); err != nil {
		return SetCredentialResult{}, err
	}
	hash, err := s.vault.Hash(pin)
	if err != nil {
		return SetCredentialResult{}, err
	}
	if err := s.repo.CompleteRegistration(ctx, ident.ID, token, hash); err != nil {
		return SetCredentialResult{}, err
	}

	session, err := s.tokens.Session(ident.ID)
	if err != nil {
		return SetCredentialResult{}, err
	}
	ident.CredentialHash = hash
	ident.CredentialSet = true
	ident.RegistrationComplete = true
	ident.PendingSessionToken = ""
	s.log.Info("registration complete", slog.String("identity_id", ident.ID), slog.String("stage", string(ident.Stage())))
	return SetCredentialResult{Identity: ident, Session: session}, nil
}

// pendingIdentity verifies token for purpose and resolves the identity it
// was issued to, which must still hold it as its pending session token.
func (s *Service) pendingIdentity(ctx context.Context, token string, purpose auth.Purpose) (identity.Identity, error) {
	claims, err := s.tokens.Verify(token, purpose)
	if err != nil {
		return identity.Identity{}, err
	}
	ident, err := s.repo.FindByID(ctx, claims.Subject)
	if errors.Is(err, apperr.ErrNotFound) {
		return identity.Identity{}, apperr.Unauthorized("registration session is no longer valid")
	}
	if err != nil {
		return identity.Identity{}, err
	}
	if ident.RegistrationComplete || ident.PendingSessionToken != token {
		return identity.Identity{}, apperr.Unauthorized("registration session is no longer valid")
	}
	if ident.NationalID == "" {
		return identity.Identity{}, apperr.Validation("identity has no id number, restart registration")
	}
	return ident, nil
}

func (s *Service) normalisePhone(raw string) (string, error) {
	phone := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	if len(phone) != s.phoneDigits || !digitsOnly(phone) {
		return "", apperr.Validation("phone number must be exactly " + strconv.Itoa(s.phoneDigits) + " digits")
	}
	return phone, nil
}

func presentValue(f verification.Field) string {
	if f.Present() {
		return f.Value
	}
	return ""
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
