package auth

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gkash/gkash_api/internal/apperr"
	"github.com/gkash/gkash_api/internal/config"
)

// Purpose restricts which endpoints accept a token.
type Purpose string

const (
	// PurposeSession marks a full session token accepted by any identity-scoped endpoint.
	PurposeSession Purpose = "session"
	// PurposeCompleteRegistration is minted after the document step.
	PurposeCompleteRegistration Purpose = "complete_registration"
	// PurposePINSetup is minted once the phone step is satisfied.
	PurposePINSetup Purpose = "pin_setup"
)

// Scoped reports whether p is a short-lived registration purpose.
func (p Purpose) Scoped() bool {
	return p == PurposeCompleteRegistration || p == PurposePINSetup
}

// Claims are the signed contents of every token the service issues.
type Claims struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// Token is an issued bearer token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Service mints and verifies HS256 tokens carrying a subject and purpose.
type Service struct {
	secret     []byte
	issuer     string
	scopedTTL  time.Duration
	sessionTTL time.Duration
	now        func() time.Time
}

// NewService builds a token service from configuration.
func NewService(cfg config.Config) *Service {
	return &Service{
		secret:     []byte(cfg.JWTSecret),
		issuer:     cfg.AppName,
		scopedTTL:  cfg.ScopedTokenTTL,
		sessionTTL: cfg.SessionTokenTTL,
		now:        time.Now,
	}
}

// Issue signs a token for subject restricted to purpose.
func (s *Service) Issue(subject string, purpose Purpose) (Token, error) {
	ttl := s.sessionTTL
	if purpose.Scoped() {
		ttl = s.scopedTTL
	}
	now := s.now()
	exp := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, ExpiresAt: exp}, nil
}

// Session issues a full session token.
func (s *Service) Session(subject string) (Token, error) {
	return s.Issue(subject, PurposeSession)
}

// Verify checks signature, expiry and that the token purpose is one of accepted.
func (s *Service) Verify(tokenString string, accepted ...Purpose) (*Claims, error) {
	if tokenString == "" {
		return nil, apperr.Unauthorized("missing token")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Unauthorized("token has expired")
		}
		return nil, apperr.Unauthorized("invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, apperr.Unauthorized("invalid token claims")
	}
	if !slices.Contains(accepted, claims.Purpose) {
		return nil, apperr.Unauthorized("token not valid for this step")
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}
