package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkash/gkash_api/internal/apperr"
	"github.com/gkash/gkash_api/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		AppName:         "GKash",
		JWTSecret:       "test-secret",
		ScopedTokenTTL:  30 * time.Minute,
		SessionTokenTTL: 7 * 24 * time.Hour,
	}
}

func TestIssueAndVerify(t *testing.T) {
	svc := NewService(testConfig())

	tok, err := svc.Issue("identity-1", PurposeCompleteRegistration)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), tok.ExpiresAt, 5*time.Second)

	claims, err := svc.Verify(tok.Value, PurposeCompleteRegistration)
	require.NoError(t, err)
	assert.Equal(t, "identity-1", claims.Subject)
	assert.Equal(t, PurposeCompleteRegistration, claims.Purpose)

	session, err := svc.Session("identity-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), session.ExpiresAt, 5*time.Second)
}

func TestVerifyRejectsWrongPurpose(t *testing.T) {
	svc := NewService(testConfig())
	purposes := []Purpose{PurposeSession, PurposeCompleteRegistration, PurposePINSetup}

	for _, issued := range purposes {
		tok, err := svc.Issue("identity-1", issued)
		require.NoError(t, err)
		for _, accepted := range purposes {
			_, err := svc.Verify(tok.Value, accepted)
			if issued == accepted {
				assert.NoError(t, err)
				continue
			}
			assert.ErrorIs(t, err, apperr.ErrUnauthorized, "%s token accepted as %s", issued, accepted)
		}
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := NewService(testConfig())
	issuedAt := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issuedAt }
	tok, err := svc.Issue("identity-1", PurposePINSetup)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Verify(tok.Value, PurposePINSetup)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	other := testConfig()
	other.JWTSecret = "another-secret"
	tok, err := NewService(other).Issue("identity-1", PurposeSession)
	require.NoError(t, err)

	_, err = NewService(testConfig()).Verify(tok.Value, PurposeSession)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Purpose:          PurposeSession,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "identity-1", Issuer: "GKash"},
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewService(testConfig()).Verify(raw, PurposeSession)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = NewService(testConfig()).Verify("", PurposeSession)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestVerifyRejectsOtherHMACAlgorithms(t *testing.T) {
	cfg := testConfig()
	now := time.Now()
	claims := Claims{
		Purpose: PurposeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "identity-1",
			Issuer:    cfg.AppName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	for _, method := range []jwt.SigningMethod{jwt.SigningMethodHS384, jwt.SigningMethodHS512} {
		raw, err := jwt.NewWithClaims(method, claims).SignedString([]byte(cfg.JWTSecret))
		require.NoError(t, err)

		_, err = NewService(cfg).Verify(raw, PurposeSession)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized, method.Alg())
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken(""))
}

func TestVault(t *testing.T) {
	v := NewVault(4)
	hash, err := v.Hash("1234")
	require.NoError(t, err)
	require.NoError(t, v.Verify(hash, "1234"))
	require.ErrorIs(t, v.Verify(hash, "4321"), apperr.ErrUnauthorized)
	require.ErrorIs(t, v.Verify(nil, "1234"), apperr.ErrUnauthorized)
	assert.Equal(t, DefaultCost, NewVault(99).cost)
}
