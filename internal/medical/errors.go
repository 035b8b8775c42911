package medical

import (
	"errors"
	"fmt"
)

// Sentinel errors for the orchestration pipeline. Ownership and not-found
// conditions surface to the transport layer with their specific kind;
// retrieval and generation failures are absorbed by the fallback path and
// must never reach a caller.
var (
	ErrSessionNotFound      = errors.New("chat session not found")
	ErrSessionAccessDenied  = errors.New("access denied to chat session")
	ErrRetrievalUnavailable = errors.New("knowledge base search unavailable")
	ErrGenerationFailure    = errors.New("response generation failed")
)

// ValidationError reports a malformed chat request.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid request: " + e.Reason }

// ProcessingError wraps an unexpected fault with a message safe to show the
// user. The original cause stays available for logs via Unwrap.
type ProcessingError struct {
	Cause error
}

func (e *ProcessingError) Error() string {
	return "unable to process medical request; please try again or consult a healthcare professional"
}

func (e *ProcessingError) Unwrap() error { return e.Cause }

func processingErr(format string, args ...interface{}) error {
	return &ProcessingError{Cause: fmt.Errorf(format, args...)}
}
