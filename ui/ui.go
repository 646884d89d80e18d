// Package ui is the terminal view of a narration: a loading spinner, the
// transcript with the spoken sentence highlighted, and a status line for
// the play/pause control.
package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/message"

	"github.com/dgnsrekt/docent/tts"
)

const (
	loadingRotation      = 2 * time.Second // how often loading messages change
	statusMessageTimeout = 3 * time.Second // how long notices like "saved" stay up
)

// Actions are what the keys do. Each runs off the UI goroutine; nil
// actions are ignored.
type Actions struct {
	Start  func() // runs once the program is ready
	Toggle func()
	Save   func()
	Replay func()
	Quit   func()
}

type (
	appendMsg struct {
		anchor tts.Anchor
		text   string
	}
	highlightMsg struct {
		anchor tts.Anchor
		on     bool
	}
	errorMsg        string
	resetMsg        struct{}
	sessionMsg      tts.SessionKind
	stateMsg        tts.StateType
	noticeMsg       string
	rotateMsg       int // loading generation it belongs to
	noticeExpireMsg int // notice generation it belongs to
)

type model struct {
	cfg     Config
	actions Actions
	printer *message.Printer
	logger  *log.Logger

	width  int
	height int

	kind      tts.SessionKind
	state     tts.StateType
	sentences []string
	anchors   map[tts.Anchor]int // anchor to index in sentences
	current   tts.Anchor
	errText   string

	spinner    spinner.Model
	loading    []string
	loadingIdx int
	loadingGen int

	notice    string
	noticeGen int

	highlight lipgloss.Style
}

func newModel(cfg Config, actions Actions) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	printer := tts.NewPrinter(cfg.Language)
	return model{
		cfg:       cfg,
		actions:   actions,
		printer:   printer,
		logger:    log.WithPrefix("ui"),
		anchors:   make(map[tts.Anchor]int),
		current:   tts.NoAnchor,
		spinner:   sp,
		loading:   tts.LoadingMessages(printer, tts.SessionDescribe),
		highlight: highlightStyle(cfg.Highlight),
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.actions.Start != nil {
		cmds = append(cmds, run(m.actions.Start))
	}
	return tea.Batch(cmds...)
}

// run wraps an action as a command.
func run(fn func()) tea.Cmd {
	if fn == nil {
		return nil
	}
	return func() tea.Msg {
		fn()
		return nil
	}
}

func rotate(gen int) tea.Cmd {
	return tea.Tick(loadingRotation, func(time.Time) tea.Msg { return rotateMsg(gen) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case " ":
			return m, run(m.actions.Toggle)
		case "s", "S":
			return m, run(m.actions.Save)
		case "r", "R":
			return m, run(m.actions.Replay)
		case "q", "esc", "ctrl+c":
			return m, tea.Sequence(run(m.actions.Quit), tea.Quit)
		case "ctrl+z":
			return m, tea.Suspend
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case sessionMsg:
		m.kind = tts.SessionKind(msg)
		m.loading = tts.LoadingMessages(m.printer, m.kind)

	case resetMsg:
		m.sentences = nil
		m.anchors = make(map[tts.Anchor]int)
		m.current = tts.NoAnchor
		m.errText = ""

	case appendMsg:
		m.anchors[msg.anchor] = len(m.sentences)
		m.sentences = append(m.sentences, msg.text)

	case highlightMsg:
		switch {
		case msg.on:
			m.current = msg.anchor
		case m.current == msg.anchor:
			m.current = tts.NoAnchor
		}

	case errorMsg:
		m.errText = string(msg)

	case stateMsg:
		prev := m.state
		m.state = tts.StateType(msg)
		if m.state == tts.StateLoading && prev != tts.StateLoading {
			m.loadingGen++
			m.loadingIdx = 0
			return m, tea.Batch(m.spinner.Tick, rotate(m.loadingGen))
		}

	case rotateMsg:
		if int(msg) != m.loadingGen || m.state != tts.StateLoading || len(m.sentences) > 0 {
			return m, nil
		}
		m.loadingIdx = (m.loadingIdx + 1) % len(m.loading)
		return m, rotate(m.loadingGen)

	case noticeMsg:
		m.notice = string(msg)
		m.noticeGen++
		gen := m.noticeGen
		return m, tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg { return noticeExpireMsg(gen) })

	case noticeExpireMsg:
		if int(msg) == m.noticeGen {
			m.notice = ""
		}

	case spinner.TickMsg:
		if m.state != tts.StateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// wrapWidth is the transcript width.
func (m model) wrapWidth() int {
	w := m.width
	if m.cfg.Width > 0 && (w == 0 || int(m.cfg.Width) < w) {
		w = int(m.cfg.Width)
	}
	if w <= 0 {
		w = 80
	}
	return max(w-2, 20)
}

func (m model) View() string {
	var b strings.Builder

	if m.cfg.Title != "" {
		b.WriteString(titleStyle.Render(m.cfg.Title))
		b.WriteString("\n\n")
	}

	switch {
	case m.errText != "":
		b.WriteString(errorStyle.Render(wordwrap.String(m.errText, m.wrapWidth())))
	case len(m.sentences) == 0 && m.state == tts.StateLoading:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.loading[m.loadingIdx%len(m.loading)])
	default:
		b.WriteString(m.transcriptView())
	}

	b.WriteString("\n\n")
	b.WriteString(m.statusView())
	return b.String()
}

// transcriptView wraps the transcript and highlights the spoken sentence.
// Sentences are wrapped one by one so the highlight never spans a break
// it did not start on.
func (m model) transcriptView() string {
	width := m.wrapWidth()
	var out []string
	line := ""
	flush := func() {
		if line != "" {
			out = append(out, line)
			line = ""
		}
	}

	current := -1
	if i, ok := m.anchors[m.current]; ok {
		current = i
	}
	for i, s := range m.sentences {
		sep := ""
		if line != "" {
			sep = " "
		}
		if lipgloss.Width(line)+len(sep)+lipgloss.Width(s) > width {
			flush()
			sep = ""
		}
		text := s
		if lipgloss.Width(text) > width {
			flush()
			text = wordwrap.String(text, width)
		}
		if i == current {
			text = m.highlight.Render(text)
		}
		line += sep + text
	}
	flush()
	return strings.Join(out, "\n")
}

func (m model) statusView() string {
	indicator := lipgloss.NewStyle().Foreground(stateColor(m.state)).
		Render(stateIcon(m.state) + " " + tts.StateLabel(m.printer, m.state))

	parts := []string{indicator}
	if m.notice != "" {
		parts = append(parts, noticeStyle.Render(m.notice))
	}
	parts = append(parts, helpStyle.Render("space play/pause • s save • r replay • q quit"))
	return strings.Join(parts, separator)
}
