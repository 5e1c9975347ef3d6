package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"notekeeper/pkg/apperr"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := apperr.New(apperr.KindNotFound, "Note not found")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	wrapped := fmt.Errorf("get note: %w", err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(wrapped))
	assert.True(t, apperr.Is(wrapped, apperr.KindNotFound))
	assert.False(t, apperr.Is(wrapped, apperr.KindValidation))

	assert.Equal(t, apperr.KindInternal, apperr.KindOf(errors.New("boom")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := apperr.Internal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal server error", err.Message)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestValidation(t *testing.T) {
	err := apperr.Validation(map[string]string{"title": "must be at least 1 characters"})
	assert.Equal(t, apperr.KindValidation, err.Kind)
	assert.Equal(t, "Validation failed", err.Message)
	assert.Len(t, err.Fields, 1)
}
