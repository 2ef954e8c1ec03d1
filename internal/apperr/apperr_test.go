package apperr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsUnwrapsWrappedAppError(t *testing.T) {
	base := NewNotFound("memory")
	wrapped := errors.Join(errors.New("context"), base)

	ae, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, TypeNotFound, ae.Type)
	assert.Equal(t, http.StatusNotFound, ae.HTTPStatus)
}

func TestAsFailsForPlainError(t *testing.T) {
	_, ok := As(errors.New("plain"))
	assert.False(t, ok)
}

func TestIsMatchesType(t *testing.T) {
	err := NewQuotaExceeded("memory", 100, 100)
	assert.True(t, Is(err, TypeQuotaExceeded))
	assert.False(t, Is(err, TypeNotFound))
}

func TestQuotaExceededCarriesDetails(t *testing.T) {
	err := NewQuotaExceeded("workspace", 2, 2)
	assert.Equal(t, 2, err.Details["limit"])
	assert.Equal(t, 2, err.Details["current"])
}

func TestErrorStringIncludesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewInternal("failed to write", cause)
	assert.Contains(t, err.Error(), "disk full")
	assert.ErrorIs(t, err, cause)
}

func TestUnauthorizedDefaultsMessage(t *testing.T) {
	err := NewUnauthorized("")
	assert.Equal(t, "unauthorized", err.Message)
}
