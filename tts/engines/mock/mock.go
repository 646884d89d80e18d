// Package mock provides a recording voice for testing.
package mock

import (
	"sync"

	"github.com/dgnsrekt/docent/tts"
)

// Voice records every call and lets tests decide when an utterance
// finishes. It supports native pause and resume.
type Voice struct {
	mu sync.Mutex

	calls   []string
	spoken  []tts.Utterance
	current *utterance
	paused  bool

	// Control for testing
	speakErr   error
	pauseErr   error
	autoFinish bool
}

type utterance struct {
	u    tts.Utterance
	done func(error)
}

// New creates a new mock voice.
func New() *Voice {
	return &Voice{}
}

// Speak records u. It finishes when Finish is called, or immediately when
// auto finish is enabled.
func (v *Voice) Speak(u tts.Utterance, done func(error)) error {
	v.mu.Lock()
	v.calls = append(v.calls, "speak")
	if v.speakErr != nil {
		err := v.speakErr
		v.mu.Unlock()
		return err
	}
	v.spoken = append(v.spoken, u)
	v.paused = false
	if v.autoFinish {
		v.current = nil
		v.mu.Unlock()
		done(nil)
		return nil
	}
	v.current = &utterance{u: u, done: done}
	v.mu.Unlock()
	return nil
}

// Cancel drops the current utterance without finishing it.
func (v *Voice) Cancel() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls = append(v.calls, "cancel")
	v.current = nil
	v.paused = false
	return nil
}

// Pause records a pause.
func (v *Voice) Pause() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls = append(v.calls, "pause")
	if v.pauseErr != nil {
		return v.pauseErr
	}
	v.paused = true
	return nil
}

// Resume records a resume.
func (v *Voice) Resume() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls = append(v.calls, "resume")
	v.paused = false
	return nil
}

// Test control methods

// Finish completes the current utterance. It reports false when nothing
// is speaking or the voice is paused.
func (v *Voice) Finish() bool {
	v.mu.Lock()
	cur := v.current
	if cur == nil || v.paused {
		v.mu.Unlock()
		return false
	}
	v.current = nil
	v.mu.Unlock()

	cur.done(nil)
	return true
}

// Fail ends the current utterance with err, as a voice that broke mid
// sentence would.
func (v *Voice) Fail(err error) bool {
	v.mu.Lock()
	cur := v.current
	v.current = nil
	v.mu.Unlock()
	if cur == nil {
		return false
	}
	cur.done(err)
	return true
}

// SetSpeakError makes Speak fail with err.
func (v *Voice) SetSpeakError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.speakErr = err
}

// SetPauseError makes Pause fail with err.
func (v *Voice) SetPauseError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pauseErr = err
}

// SetAutoFinish makes Speak call done before returning.
func (v *Voice) SetAutoFinish(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.autoFinish = on
}

// Calls returns the names of the methods called, in order.
func (v *Voice) Calls() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.calls...)
}

// Spoken returns the text of every utterance handed to Speak.
func (v *Voice) Spoken() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, len(v.spoken))
	for i, u := range v.spoken {
		out[i] = u.Text
	}
	return out
}

// Utterances returns every utterance handed to Speak.
func (v *Voice) Utterances() []tts.Utterance {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]tts.Utterance(nil), v.spoken...)
}

// Current returns the utterance being spoken.
func (v *Voice) Current() (tts.Utterance, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current == nil {
		return tts.Utterance{}, false
	}
	return v.current.u, true
}

// Count returns how many times method was called.
func (v *Voice) Count(method string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, c := range v.calls {
		if c == method {
			n++
		}
	}
	return n
}

// WithoutPause returns a view of v that does not implement tts.Pauser.
func (v *Voice) WithoutPause() tts.Voice {
	return basic{v: v}
}

type basic struct {
	v *Voice
}

func (b basic) Speak(u tts.Utterance, done func(error)) error { return b.v.Speak(u, done) }
func (b basic) Cancel() error                            { return b.v.Cancel() }

// Transcript records what the pipeline rendered.
type Transcript struct {
	mu          sync.Mutex
	sentences   []string
	highlighted tts.Anchor
	highlights  []tts.Anchor
	errors      []string
	resets      int
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{highlighted: tts.NoAnchor}
}

// Append records text.
func (t *Transcript) Append(text string) tts.Anchor {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sentences = append(t.sentences, text)
	return tts.Anchor(len(t.sentences) - 1)
}

// Highlight records a highlight.
func (t *Transcript) Highlight(a tts.Anchor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.highlighted = a
	t.highlights = append(t.highlights, a)
}

// Unhighlight clears the highlight if it is on a.
func (t *Transcript) Unhighlight(a tts.Anchor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.highlighted == a {
		t.highlighted = tts.NoAnchor
	}
}

// ShowError records msg.
func (t *Transcript) ShowError(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = append(t.errors, msg)
}

// Reset clears rendered sentences.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sentences = nil
	t.highlighted = tts.NoAnchor
	t.resets++
}

// Sentences returns the rendered sentences.
func (t *Transcript) Sentences() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.sentences...)
}

// Highlighted returns the highlighted anchor.
func (t *Transcript) Highlighted() tts.Anchor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.highlighted
}

// Highlights returns every anchor highlighted, in order.
func (t *Transcript) Highlights() []tts.Anchor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]tts.Anchor(nil), t.highlights...)
}

// Errors returns the messages shown.
func (t *Transcript) Errors() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.errors...)
}

// Resets returns how many times Reset was called.
func (t *Transcript) Resets() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resets
}
