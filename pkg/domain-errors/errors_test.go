package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("direct error", func(t *testing.T) {
		err := New(CodeNotFound, "event not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeForbidden))
	})

	t.Run("wrapped with fmt keeps code", func(t *testing.T) {
		err := fmt.Errorf("load: %w", New(CodeForbidden, "no access"))
		assert.True(t, HasCode(err, CodeForbidden))
	})

	t.Run("plain error has no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "failed to load event")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load event: connection reset", err.Error())
	assert.Nil(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestErrorsIsComparesCodeAndMessage(t *testing.T) {
	err := Wrap(errors.New("dup"), CodeAlreadyCheckedIn, "participant already checked in today")

	require.ErrorIs(t, err, New(CodeAlreadyCheckedIn, "participant already checked in today"))
	assert.NotErrorIs(t, err, New(CodeAlreadyCheckedIn, "something else"))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:         http.StatusBadRequest,
		CodePreconditionFailed: http.StatusBadRequest,
		CodeAlreadyCheckedIn:   http.StatusBadRequest,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeForbidden:          http.StatusForbidden,
		CodeNotFound:           http.StatusNotFound,
		CodeConflict:           http.StatusConflict,
		CodeRateLimited:        http.StatusTooManyRequests,
		CodeLookupService:      http.StatusInternalServerError,
		CodeInternal:           http.StatusInternalServerError,
		CodeTimeout:            http.StatusGatewayTimeout,
	}
	for code, status := range cases {
		assert.Equal(t, status, ToHTTPStatus(code), "code %s", code)
	}
	assert.True(t, IsServerError(CodeLookupService))
	assert.False(t, IsServerError(CodeAlreadyCheckedIn))
}
