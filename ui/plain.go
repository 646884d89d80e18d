package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/muesli/reflow/wordwrap"

	"github.com/dgnsrekt/docent/tts"
)

// Plain writes the transcript as lines of text, for when stdout is not a
// terminal.
type Plain struct {
	mu    sync.Mutex
	w     io.Writer
	width int
	next  tts.Anchor
}

// NewPlain returns a transcript that writes to w, wrapping at width
// columns. A zero width disables wrapping.
func NewPlain(w io.Writer, width int) *Plain {
	return &Plain{w: w, width: width}
}

// Append implements tts.Transcript.
func (p *Plain) Append(text string) tts.Anchor {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.width > 0 {
		text = wordwrap.String(text, p.width)
	}
	fmt.Fprintln(p.w, text)
	a := p.next
	p.next++
	return a
}

// Highlight implements tts.Transcript.
func (p *Plain) Highlight(tts.Anchor) {}

// Unhighlight implements tts.Transcript.
func (p *Plain) Unhighlight(tts.Anchor) {}

// ShowError implements tts.Transcript.
func (p *Plain) ShowError(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, "error:", msg)
}

// Reset implements tts.Transcript.
func (p *Plain) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next = 0
}

// Notify writes a status message on its own line.
func (p *Plain) Notify(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, "--", msg)
}
