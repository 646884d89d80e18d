package tts

import (
	"context"

	"github.com/google/uuid"
)

// SessionKind says what started a session.
type SessionKind int

const (
	// SessionDescribe narrates an image.
	SessionDescribe SessionKind = iota
	// SessionAsk answers a typed question.
	SessionAsk
	// SessionReplay speaks an archived description.
	SessionReplay
)

// String returns the string representation of the kind.
func (k SessionKind) String() string {
	switch k {
	case SessionDescribe:
		return "describe"
	case SessionAsk:
		return "ask"
	case SessionReplay:
		return "replay"
	default:
		return "unknown"
	}
}

// Session is one user action's worth of narration. Starting a new session
// makes every earlier one stale: its context is cancelled and anything it
// still tries to deliver is dropped.
type Session struct {
	ID   string
	Kind SessionKind

	ctx    context.Context
	cancel context.CancelFunc

	// owned by the controller loop
	streaming bool
	sentences int
}

func newSession(parent context.Context, kind SessionKind) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		ID:        uuid.NewString(),
		Kind:      kind,
		ctx:       ctx,
		cancel:    cancel,
		streaming: true,
	}
}

// Context is cancelled when the session is superseded or the controller
// closes.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Live reports whether the session has not been cancelled.
func (s *Session) Live() bool {
	return s.ctx.Err() == nil
}

// SessionOption configures a new session.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	held bool
}

// Held starts the session with playback held until the user toggles it.
func Held() SessionOption {
	return func(o *sessionOptions) { o.held = true }
}
