package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindMatchingThroughWrapping(t *testing.T) {
	err := fmt.Errorf("bind phone: %w", Conflict("phone number already registered"))

	require.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestUntypedErrorIsInternal(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(KindOf(err)))
}

func TestUpstreamUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Upstream("upload document image", cause)

	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, "upload document image: dial tcp: timeout", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:             http.StatusBadRequest,
		KindConflict:               http.StatusConflict,
		KindUnauthorized:           http.StatusUnauthorized,
		KindNotFound:               http.StatusNotFound,
		KindInsufficientFunds:      http.StatusBadRequest,
		KindIncompleteRegistration: http.StatusBadRequest,
		KindUpstream:               http.StatusBadGateway,
	}
	for kind, status := range cases {
		assert.Equal(t, status, HTTPStatus(kind), kind)
	}
}
