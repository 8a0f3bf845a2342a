package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_FormatAndUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := NewError(ErrStrategy, "reduce failed").WithCause(cause)

	assert.Equal(t, "[STRATEGY_ERROR] reduce failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrStrategy, GetErrorCode(err))
	assert.Equal(t, ErrorCode(""), GetErrorCode(cause))
}

func TestNewFitError_CarriesTotals(t *testing.T) {
	t.Parallel()

	err := NewFitError(1234, 1000)
	assert.Equal(t, ErrFitFailure, GetErrorCode(err))

	var fitErr *FitError
	require.True(t, errors.As(err, &fitErr))
	assert.Equal(t, 1234, fitErr.TotalTokens)
	assert.Equal(t, 1000, fitErr.Budget)

	wrapped := fmt.Errorf("render: %w", err)
	require.True(t, errors.As(wrapped, &fitErr))
}
