package tts

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// SpeechQueue plays entries strictly in the order they were enqueued, one
// at a time. It is not safe for concurrent use: every method must run on
// the goroutine that owns it, and voice completions are routed back there
// through post.
type SpeechQueue struct {
	voice      Voice
	transcript Transcript
	post       func(func())
	logger     *log.Logger

	entries     []Entry
	speaking    bool // the head has been handed to the voice
	paused      bool
	held        bool // entries wait for Start instead of playing on arrival
	disabled    bool
	highlighted Anchor
	token       uint64

	onStart func()
	onIdle  func()
	onError func(error)
}

// NewSpeechQueue creates a queue that speaks through voice and highlights
// sentences in transcript. post must schedule a function on the queue's
// owning goroutine without blocking.
func NewSpeechQueue(voice Voice, transcript Transcript, post func(func())) *SpeechQueue {
	return &SpeechQueue{
		voice:       voice,
		transcript:  transcript,
		post:        post,
		logger:      log.WithPrefix("queue"),
		highlighted: NoAnchor,
	}
}

// OnStart registers a callback for when playback starts from rest.
func (q *SpeechQueue) OnStart(fn func()) { q.onStart = fn }

// OnIdle registers a callback for when the queue runs dry.
func (q *SpeechQueue) OnIdle(fn func()) { q.onIdle = fn }

// OnError registers a callback for voice failures.
func (q *SpeechQueue) OnError(fn func(error)) { q.onError = fn }

// Enqueue appends e. If nothing was queued, nothing is speaking and the
// queue is not paused or held, playback starts immediately.
func (q *SpeechQueue) Enqueue(e Entry) {
	if q.disabled {
		return
	}
	wasEmpty := len(q.entries) == 0
	q.entries = append(q.entries, e)
	if wasEmpty && !q.speaking && !q.paused && !q.held {
		q.start()
	}
}

// Start begins playing held entries. It reports whether playback started.
func (q *SpeechQueue) Start() bool {
	q.held = false
	if q.disabled || q.speaking || q.paused || len(q.entries) == 0 {
		return false
	}
	q.start()
	return true
}

func (q *SpeechQueue) start() {
	if q.onStart != nil {
		q.onStart()
	}
	q.drain()
}

// drain speaks the head of the queue, or settles to idle when empty.
func (q *SpeechQueue) drain() {
	if q.paused {
		return
	}
	if len(q.entries) == 0 {
		q.speaking = false
		q.clearHighlight()
		if q.onIdle != nil {
			q.onIdle()
		}
		return
	}

	head := q.entries[0]
	if q.highlighted != NoAnchor && q.highlighted != head.Anchor {
		q.transcript.Unhighlight(q.highlighted)
	}
	q.transcript.Highlight(head.Anchor)
	q.highlighted = head.Anchor

	q.speaking = true
	q.token++
	token := q.token
	q.logger.Debug("Speaking", "anchor", head.Anchor, "lang", head.Utterance.Lang)
	err := q.voice.Speak(head.Utterance, func(err error) {
		q.post(func() { q.finished(token, err) })
	})
	if err != nil {
		q.fail(fmt.Errorf("speak: %w", err))
	}
}

// finished handles a completion from the voice. Completions for cancelled
// or replaced utterances carry an old token and are dropped.
func (q *SpeechQueue) finished(token uint64, err error) {
	if token != q.token || !q.speaking {
		q.logger.Debug("Ignoring stale completion", "token", token, "current", q.token)
		return
	}
	if err != nil {
		q.fail(fmt.Errorf("speak: %w", err))
		return
	}
	q.speaking = false
	q.entries = q.entries[1:]
	q.drain()
}

// Pause holds the current utterance. Voices without native pause are
// cancelled and the head stays queued so Resume can speak it again.
// It reports whether the queue was playing.
func (q *SpeechQueue) Pause() bool {
	if q.paused || !q.speaking {
		return false
	}
	q.paused = true

	if p, ok := q.voice.(Pauser); ok {
		err := p.Pause()
		if err == nil {
			return true
		}
		q.logger.Warn("Native pause failed, cancelling utterance", "err", err)
	}
	q.interrupt()
	return true
}

// Resume continues after Pause. It reports whether the queue was paused.
func (q *SpeechQueue) Resume() bool {
	if !q.paused {
		return false
	}
	q.paused = false

	if q.speaking {
		p, ok := q.voice.(Pauser)
		if ok {
			err := p.Resume()
			if err == nil {
				return true
			}
			q.logger.Warn("Native resume failed, replaying sentence", "err", err)
		}
		q.interrupt()
	}
	q.drain()
	return true
}

// interrupt stops the current utterance without dequeuing it.
func (q *SpeechQueue) interrupt() {
	if err := q.voice.Cancel(); err != nil {
		q.logger.Warn("Cancel failed", "err", err)
	}
	q.token++
	q.speaking = false
}

// CancelAll stops speech, empties the queue and clears the highlight. It is
// safe to call when nothing is playing. A disabled queue is re-enabled.
func (q *SpeechQueue) CancelAll() {
	if q.speaking || q.paused {
		if err := q.voice.Cancel(); err != nil {
			q.logger.Warn("Cancel failed", "err", err)
		}
	}
	q.token++
	q.entries = nil
	q.speaking = false
	q.paused = false
	q.held = false
	q.disabled = false
	q.clearHighlight()
}

// Hold keeps subsequent entries from playing until Start is called.
func (q *SpeechQueue) Hold() {
	q.held = true
}

// Disable cancels everything and drops future entries until the next
// CancelAll.
func (q *SpeechQueue) Disable() {
	q.CancelAll()
	q.disabled = true
}

func (q *SpeechQueue) fail(err error) {
	q.logger.Error("Voice failed, disabling audio", "err", err)
	q.Disable()
	if q.onError != nil {
		q.onError(err)
	}
}

func (q *SpeechQueue) clearHighlight() {
	if q.highlighted != NoAnchor {
		q.transcript.Unhighlight(q.highlighted)
		q.highlighted = NoAnchor
	}
}

// Len returns the number of queued entries, including the one speaking.
func (q *SpeechQueue) Len() int { return len(q.entries) }

// Speaking reports whether an utterance is in flight.
func (q *SpeechQueue) Speaking() bool { return q.speaking }

// Paused reports whether the queue is paused.
func (q *SpeechQueue) Paused() bool { return q.paused }

// Disabled reports whether audio has been disabled.
func (q *SpeechQueue) Disabled() bool { return q.disabled }

// Highlighted returns the anchor currently highlighted.
func (q *SpeechQueue) Highlighted() Anchor { return q.highlighted }
