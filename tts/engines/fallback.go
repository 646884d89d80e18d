package engines

import (
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/docent/tts"
)

// errNoPause is returned when the active voice cannot pause natively.
var errNoPause = errors.New("active voice cannot pause")

// Fallback speaks through a primary voice and switches to a secondary one
// after maxFailures consecutive failures. The utterance that tripped the
// switch is retried on the secondary voice.
type Fallback struct {
	primary     tts.Voice
	fallback    tts.Voice
	maxFailures int
	logger      *log.Logger

	mu            sync.Mutex
	failures      int
	usingFallback bool
}

// NewFallback creates a voice with automatic fallback.
func NewFallback(primary, fallback tts.Voice, maxFailures int) *Fallback {
	return &Fallback{
		primary:     primary,
		fallback:    fallback,
		maxFailures: maxFailures,
		logger:      log.WithPrefix("voice"),
	}
}

func (f *Fallback) active() tts.Voice {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usingFallback {
		return f.fallback
	}
	return f.primary
}

// failed records a primary failure and reports whether to switch.
func (f *Fallback) failed(err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures++
	f.logger.Warn("Primary voice failed", "attempt", f.failures, "max", f.maxFailures, "err", err)
	if f.failures >= f.maxFailures {
		f.usingFallback = true
		f.logger.Warn("Switching to fallback voice")
		return true
	}
	return false
}

func (f *Fallback) succeeded() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 && !f.usingFallback {
		f.logger.Info("Primary voice recovered", "failures", f.failures)
		f.failures = 0
	}
}

// Speak implements tts.Voice.
func (f *Fallback) Speak(u tts.Utterance, done func(error)) error {
	voice := f.active()
	if voice == f.fallback {
		return voice.Speak(u, done)
	}

	err := voice.Speak(u, func(err error) {
		if err == nil {
			f.succeeded()
			done(nil)
			return
		}
		if !f.failed(err) {
			done(err)
			return
		}
		if err := f.fallback.Speak(u, done); err != nil {
			done(err)
		}
	})
	if err == nil {
		return nil
	}
	if !f.failed(err) {
		return err
	}
	return f.fallback.Speak(u, done)
}

// Cancel implements tts.Voice.
func (f *Fallback) Cancel() error {
	return errors.Join(f.primary.Cancel(), f.fallback.Cancel())
}

// Pause implements tts.Pauser when the active voice does.
func (f *Fallback) Pause() error {
	if p, ok := f.active().(tts.Pauser); ok {
		return p.Pause()
	}
	return errNoPause
}

// Resume implements tts.Pauser when the active voice does.
func (f *Fallback) Resume() error {
	if p, ok := f.active().(tts.Pauser); ok {
		return p.Resume()
	}
	return errNoPause
}

// UsingFallback reports whether the secondary voice is active.
func (f *Fallback) UsingFallback() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usingFallback
}

// Reset switches back to the primary voice.
func (f *Fallback) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = 0
	f.usingFallback = false
	f.logger.Info("Reset to primary voice")
}
