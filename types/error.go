package types

import "fmt"

// ErrorCode represents a unified error code across the library.
type ErrorCode string

const (
	// ErrMalformedTree signals a structural invariant violated at build
	// time: a caller bug, surfaced immediately and never retried.
	ErrMalformedTree ErrorCode = "MALFORMED_TREE"

	// ErrFitFailure signals that the tree cannot be reduced below budget
	// even after exhausting all strategies. The cause is a *FitError.
	ErrFitFailure ErrorCode = "FIT_FAILURE"

	// ErrStrategy signals that a reduction strategy failed. The render call
	// fails as a whole; no partial reduction is applied.
	ErrStrategy ErrorCode = "STRATEGY_ERROR"

	// ErrCodecContract signals that incremental token accounting diverged
	// from CountTokens of the rendered payload: a codec bug.
	ErrCodecContract ErrorCode = "CODEC_CONTRACT"

	// ErrTokenizer signals a token counting failure.
	ErrTokenizer ErrorCode = "TOKENIZER_ERROR"
)

// Error represents a structured error with code, message, and cause.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// FitError carries the final measurements of a failed fit for diagnostics.
// It is always wrapped in an Error with code ErrFitFailure.
type FitError struct {
	TotalTokens int `json:"total_tokens"`
	Budget      int `json:"budget"`
}

// Error implements the error interface.
func (e *FitError) Error() string {
	return fmt.Sprintf("prompt does not fit: %d tokens exceeds budget of %d", e.TotalTokens, e.Budget)
}

// NewFitError creates a FIT_FAILURE error carrying the final totals.
func NewFitError(totalTokens, budget int) *Error {
	return NewError(ErrFitFailure, "no reducible scope remains").
		WithCause(&FitError{TotalTokens: totalTokens, Budget: budget})
}
