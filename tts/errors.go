package tts

import (
	"context"
	"errors"
	"strings"
)

// Common errors for the narration pipeline.
var (
	ErrVoiceUnavailable = errors.New("voice is not available")
	ErrSessionCanceled  = errors.New("narration session was canceled")
	ErrControllerClosed = errors.New("controller has been closed")
	ErrNotInitialized   = errors.New("generator is not initialized: set an API key first")
	ErrInvalidAPIKey    = errors.New("API key not valid")
)

// credentialMarkers are substrings that upstream services use when they
// reject a key.
var credentialMarkers = []string{
	"API key not valid",
	"API_KEY_INVALID",
	"invalid_api_key",
	"Incorrect API key",
}

// ErrorKind classifies an error for the user-facing flow it triggers.
type ErrorKind int

const (
	// KindUnknown is anything not otherwise classified.
	KindUnknown ErrorKind = iota
	// KindTransport covers network and upstream generation failures.
	KindTransport
	// KindCredentials means the API key is missing or was rejected.
	KindCredentials
	// KindEngine means the voice could not speak.
	KindEngine
	// KindCanceled means the session was superseded or stopped.
	KindCanceled
)

// String returns the string representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindCredentials:
		return "credentials"
	case KindEngine:
		return "engine"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// NarrationError provides detailed error information.
type NarrationError struct {
	Kind ErrorKind
	Op   string // operation being performed, e.g. "generate" or "speak"
	Err  error
}

// Error implements the error interface.
func (e *NarrationError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.String() + " error"
	}
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *NarrationError) Unwrap() error {
	return e.Err
}

// NewError wraps err with a kind and operation.
func NewError(kind ErrorKind, op string, err error) *NarrationError {
	return &NarrationError{Kind: kind, Op: op, Err: err}
}

// IsCredentialError reports whether err means the API key was rejected or
// is missing.
func IsCredentialError(err error) bool {
	return Classify(err) == KindCredentials
}

// Classify returns the kind of err.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var ne *NarrationError
	if errors.As(err, &ne) && ne.Kind != KindUnknown {
		return ne.Kind
	}

	switch {
	case errors.Is(err, ErrInvalidAPIKey), errors.Is(err, ErrNotInitialized):
		return KindCredentials
	case errors.Is(err, ErrSessionCanceled), errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrVoiceUnavailable):
		return KindEngine
	}

	msg := err.Error()
	for _, m := range credentialMarkers {
		if strings.Contains(msg, m) {
			return KindCredentials
		}
	}
	return KindTransport
}
