package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeInvalidParameter, "period must be positive")
	assert.Equal(t, "[100] period must be positive", err.Error())

	wrapped := Wrap(ErrCodeQueryFailed, "failed to load bars", fmt.Errorf("io timeout"))
	assert.Contains(t, wrapped.Error(), "failed to load bars")
	assert.Contains(t, wrapped.Error(), "io timeout")
}

func TestGetCodeAndHasCode(t *testing.T) {
	err := Newf(ErrCodeStaleOrder, "fill for cancelled order %s", "abc")

	assert.Equal(t, ErrCodeStaleOrder, GetCode(err))
	assert.True(t, HasCode(err, ErrCodeStaleOrder))
	assert.False(t, HasCode(err, ErrCodeOrderNotFound))

	// Codes survive wrapping through the chain.
	outer := fmt.Errorf("outer: %w", err)
	assert.Equal(t, ErrCodeStaleOrder, GetCode(outer))

	assert.Equal(t, ErrCodeUnknown, GetCode(fmt.Errorf("plain error")))
	assert.Equal(t, ErrCodeUnknown, GetCode(nil))
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ErrCodeOrderFailed, "submission failed", cause)

	require.ErrorIs(t, err, cause)
}

func TestInsufficientDataError(t *testing.T) {
	err := NewInsufficientDataErrorf(40, 12, "window holds %d of %d bars", 12, 40)

	assert.True(t, IsInsufficientDataError(err))
	assert.Equal(t, 40, err.Required)
	assert.Equal(t, 12, err.Actual)
	assert.Contains(t, err.Error(), "window holds 12 of 40 bars")

	wrapped := fmt.Errorf("indicator: %w", err)
	assert.True(t, IsInsufficientDataError(wrapped))

	assert.False(t, IsInsufficientDataError(fmt.Errorf("plain")))
}
