// Package tts narrates streamed text: it cuts the stream into sentences,
// renders them, and speaks them one after another while tracking playback
// state for the single play/pause control.
package tts

import (
	"context"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/text/message"

	"github.com/dgnsrekt/docent/tts/sentence"
)

// LanguageFunc picks the BCP-47 tag an utterance is spoken in.
type LanguageFunc func(text string) string

// FixedLanguage speaks everything in one language.
func FixedLanguage(tag string) LanguageFunc {
	return func(string) string { return tag }
}

// DefaultLanguage is used when no LanguageFunc is configured.
const DefaultLanguage = "ko-KR"

// Controller owns the speech queue and the playback state machine. Every
// mutation happens on its loop goroutine; the exported methods are safe for
// concurrent use.
type Controller struct {
	loop       *Loop
	queue      *SpeechQueue
	machine    *StateMachine
	transcript Transcript
	printer    *message.Printer
	language   LanguageFunc
	logger     *log.Logger

	// owned by the loop
	session *Session
	onError []func(error)

	state  atomic.Int32
	closed atomic.Bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithPrinter sets the printer used for user-facing messages.
func WithPrinter(p *message.Printer) Option {
	return func(c *Controller) { c.printer = p }
}

// WithLanguage sets how utterance languages are chosen.
func WithLanguage(fn LanguageFunc) Option {
	return func(c *Controller) { c.language = fn }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController creates a controller that speaks through voice and renders
// into transcript. Call Close when done.
func NewController(voice Voice, transcript Transcript, opts ...Option) *Controller {
	c := &Controller{
		loop:       NewLoop(),
		machine:    NewStateMachine(),
		transcript: transcript,
		printer:    NewPrinter("en"),
		language:   FixedLanguage(DefaultLanguage),
		logger:     log.WithPrefix("narration"),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.queue = NewSpeechQueue(voice, transcript, func(f func()) { c.loop.Post(f) })
	c.queue.OnStart(c.queueStarted)
	c.queue.OnIdle(c.queueIdle)
	c.queue.OnError(c.voiceFailed)

	c.machine.Observe(func(from, to StateType) {
		c.state.Store(int32(to))
		c.logger.Debug("State changed", "from", from, "to", to)
	})

	return c
}

// OnStateChange registers a callback for every state transition. It runs
// on the controller loop and must not block or call Do-style methods.
func (c *Controller) OnStateChange(fn func(from, to StateType)) {
	c.loop.Do(func() { c.machine.Observe(fn) })
}

// OnError registers a callback for generation and voice failures. It runs
// on the controller loop.
func (c *Controller) OnError(fn func(error)) {
	c.loop.Do(func() { c.onError = append(c.onError, fn) })
}

// State returns the current playback state.
func (c *Controller) State() StateType {
	return StateType(c.state.Load())
}

// BeginSession cancels whatever is playing or streaming, clears the
// transcript and starts loading a new session.
func (c *Controller) BeginSession(ctx context.Context, kind SessionKind, opts ...SessionOption) *Session {
	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}

	s := newSession(ctx, kind)
	ok := c.loop.Do(func() {
		if c.session != nil {
			c.session.cancel()
		}
		c.queue.CancelAll()
		c.transcript.Reset()
		c.machine.Transition(StateIdle)

		c.session = s
		if o.held {
			c.queue.Hold()
		}
		c.machine.Transition(StateLoading)
		c.logger.Debug("Session started", "id", s.ID, "kind", kind)
	})
	if !ok {
		s.cancel()
	}
	return s
}

// Toggle is the play/pause control: it pauses while playing, resumes while
// paused and starts held entries while idle. In any other state it does
// nothing.
func (c *Controller) Toggle() {
	c.loop.Post(c.toggle)
}

func (c *Controller) toggle() {
	switch c.machine.Current() {
	case StatePlaying:
		if c.queue.Pause() {
			c.machine.Transition(StatePaused)
		}
	case StatePaused:
		if c.queue.Resume() {
			c.machine.Transition(StatePlaying)
		}
	case StateIdle:
		c.queue.Start()
	}
}

// Stop cancels the current session and silences the voice.
func (c *Controller) Stop() {
	c.loop.Post(func() {
		if c.session != nil {
			c.session.cancel()
			c.session.streaming = false
		}
		c.queue.CancelAll()
		c.machine.Transition(StateIdle)
	})
}

// Sync waits until everything posted so far has been handled.
func (c *Controller) Sync() {
	c.loop.Do(func() {})
}

// Close stops playback and the loop. The controller cannot be used
// afterwards.
func (c *Controller) Close() {
	if c.closed.Swap(true) {
		return
	}
	c.loop.Do(func() {
		if c.session != nil {
			c.session.cancel()
		}
		c.queue.CancelAll()
	})
	c.loop.Close()
}

// deliver renders and enqueues a sentence unless s has gone stale.
func (c *Controller) deliver(s *Session, text string) {
	c.loop.Post(func() {
		if c.session != s || !s.Live() {
			return
		}
		anchor := c.transcript.Append(text)
		s.sentences++
		c.queue.Enqueue(Entry{
			Utterance: Utterance{Text: sentence.Speakable(text), Lang: c.language(text)},
			Anchor:    anchor,
		})
	})
}

// finish marks the end of s's stream. A session that never got a sentence
// playing settles back to idle.
func (c *Controller) finish(s *Session) {
	c.loop.Post(func() {
		if c.session != s {
			return
		}
		s.streaming = false
		if c.machine.Current() == StateLoading && !c.queue.Speaking() {
			c.machine.Transition(StateIdle)
		}
	})
}

// fail aborts s: audio is disabled and the transcript shows err.
func (c *Controller) fail(s *Session, err error) {
	c.loop.Post(func() {
		if c.session != s {
			return
		}
		s.streaming = false
		c.logger.Error("Session failed", "id", s.ID, "kind", s.Kind, "err", err)
		c.queue.Disable()
		c.transcript.ShowError(FailureMessage(c.printer, s.Kind, err))
		c.machine.Transition(StateDisabled)
		c.notifyError(err)
	})
}

func (c *Controller) queueStarted() {
	c.machine.Transition(StatePlaying)
}

// queueIdle runs when the queue drains. While the stream is still open the
// controller waits for more text in loading.
func (c *Controller) queueIdle() {
	if c.session != nil && c.session.streaming && c.session.Live() {
		c.machine.Transition(StateLoading)
		return
	}
	c.machine.Transition(StateIdle)
}

func (c *Controller) voiceFailed(err error) {
	c.machine.Transition(StateDisabled)
	c.notifyError(NewError(KindEngine, "speak", err))
}

func (c *Controller) notifyError(err error) {
	for _, fn := range c.onError {
		fn(err)
	}
}
