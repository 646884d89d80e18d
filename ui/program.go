package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/docent/tts"
)

// sender is the part of tea.Program the view talks through.
type sender interface {
	Send(msg tea.Msg)
}

// Program is a running narration view.
type Program struct {
	program *tea.Program
	view    *View
}

// NewProgram returns a new Tea program and the view that feeds it.
func NewProgram(cfg Config, actions Actions) *Program {
	opts := []tea.ProgramOption{}
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(newModel(cfg, actions), opts...)
	return &Program{program: p, view: newView(p)}
}

// View returns the transcript and status sink for the controller.
func (p *Program) View() *View { return p.view }

// Run blocks until the user quits.
func (p *Program) Run() error {
	_, err := p.program.Run()
	return err
}

// Quit ends the program.
func (p *Program) Quit() { p.program.Quit() }

// View implements tts.Transcript by forwarding every call to the program.
// It also carries state changes, session starts and notices.
type View struct {
	out sender

	mu   sync.Mutex
	next tts.Anchor
}

func newView(out sender) *View {
	return &View{out: out}
}

// Append implements tts.Transcript.
func (v *View) Append(text string) tts.Anchor {
	v.mu.Lock()
	a := v.next
	v.next++
	v.mu.Unlock()

	v.out.Send(appendMsg{anchor: a, text: text})
	return a
}

// Highlight implements tts.Transcript.
func (v *View) Highlight(a tts.Anchor) { v.out.Send(highlightMsg{anchor: a, on: true}) }

// Unhighlight implements tts.Transcript.
func (v *View) Unhighlight(a tts.Anchor) { v.out.Send(highlightMsg{anchor: a}) }

// ShowError implements tts.Transcript.
func (v *View) ShowError(msg string) { v.out.Send(errorMsg(msg)) }

// Reset implements tts.Transcript.
func (v *View) Reset() {
	v.mu.Lock()
	v.next = 0
	v.mu.Unlock()
	v.out.Send(resetMsg{})
}

// StateChanged shows a playback state. It matches the controller's
// OnStateChange callback.
func (v *View) StateChanged(_, to tts.StateType) { v.out.Send(stateMsg(to)) }

// SessionStarted picks the loading messages for a session of kind.
func (v *View) SessionStarted(kind tts.SessionKind) { v.out.Send(sessionMsg(kind)) }

// Notify shows a short message in the status line.
func (v *View) Notify(msg string) { v.out.Send(noticeMsg(msg)) }
