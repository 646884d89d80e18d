// Package console is a voice for machines without a speech engine. It
// prints each sentence and waits about as long as reading it aloud would
// take.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/dgnsrekt/docent/tts"
)

// MinDuration is the shortest time a sentence is held.
const MinDuration = 250 * time.Millisecond

// cellsPerWord approximates a spoken word for scripts written without
// spaces, or with wide glyphs.
const cellsPerWord = 6

// Voice paces utterances by reading speed. It has no native pause, so
// pausing replays the sentence.
type Voice struct {
	out *termenv.Output
	wpm int

	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
}

// New creates a console voice. out may be nil for a silent voice.
func New(out io.Writer, wordsPerMinute int) *Voice {
	v := &Voice{wpm: wordsPerMinute}
	if out != nil {
		v.out = termenv.NewOutput(out)
	}
	return v
}

// Duration estimates how long text takes to say.
func Duration(text string, wordsPerMinute int) time.Duration {
	if wordsPerMinute <= 0 {
		return MinDuration
	}
	words := len(strings.Fields(text))
	if w := runewidth.StringWidth(text) / cellsPerWord; w > words {
		words = w
	}
	d := time.Duration(words) * time.Minute / time.Duration(wordsPerMinute)
	if d < MinDuration {
		return MinDuration
	}
	return d
}

// Speak prints u and finishes after its estimated duration.
func (v *Voice) Speak(u tts.Utterance, done func(error)) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.stopLocked()
	v.gen++
	gen := v.gen

	if v.out != nil {
		fmt.Fprintln(v.out, v.out.String("♪ "+u.Text).Faint())
	}
	v.timer = time.AfterFunc(Duration(u.Text, v.wpm), func() {
		v.mu.Lock()
		if gen != v.gen {
			v.mu.Unlock()
			return
		}
		v.timer = nil
		v.mu.Unlock()
		done(nil)
	})
	return nil
}

// Cancel drops the current utterance.
func (v *Voice) Cancel() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	v.stopLocked()
	return nil
}

func (v *Voice) stopLocked() {
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}
