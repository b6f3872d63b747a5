package service

import (
	"errors"
)

// Errors surfaced by the chat pipeline. Handlers map them to status codes
// with errors.Is; the wrapped detail is only ever logged.
var (
	ErrValidation            = errors.New("invalid chat request")
	ErrStoreUnavailable      = errors.New("amenity store unavailable")
	ErrRateLimited           = errors.New("model rate limited")
	ErrGenerationUnavailable = errors.New("model unavailable")
)

// errMalformedOutput never leaves the generator; it triggers degradation.
var errMalformedOutput = errors.New("malformed model output")

// ValidationError carries the message shown to the caller
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
