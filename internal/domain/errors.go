package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// GenerationFailedError indicates the LLM capability failed during synchronous
// child generation. Generation is all-or-nothing: callers never receive a
// partial node list alongside this error.
type GenerationFailedError struct {
	Message string
	Err     error
}

func (e *GenerationFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *GenerationFailedError) Unwrap() error { return e.Err }

// StatusCode implements the HTTPError interface
func (e *GenerationFailedError) StatusCode() int { return http.StatusBadGateway }

// MismatchedArityError indicates the count of generated titles and computed
// positions diverged. The layout engine guarantees one box per title, so this
// check should never fire; it exists so a mismatch fails loudly instead of
// silently truncating.
type MismatchedArityError struct {
	Titles    int
	Positions int
}

func (e *MismatchedArityError) Error() string {
	return fmt.Sprintf("mismatched arity: %d titles, %d positions", e.Titles, e.Positions)
}

// StatusCode implements the HTTPError interface
func (e *MismatchedArityError) StatusCode() int { return http.StatusBadRequest }

// Is allows errors.Is() to match against ErrValidation
func (e *MismatchedArityError) Is(target error) bool {
	return target == ErrValidation
}
