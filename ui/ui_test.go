package ui

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/docent/tts"
)

// recorder stands in for a tea.Program.
type recorder struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recorder) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

// feed applies every recorded message to m.
func (r *recorder) feed(m model) model {
	r.mu.Lock()
	msgs := r.msgs
	r.msgs = nil
	r.mu.Unlock()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(model)
	}
	return m
}

func testModel(actions Actions) model {
	m := newModel(Config{Language: "en", Highlight: "226"}, actions)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	return next.(model)
}

func TestViewFeedsModel(t *testing.T) {
	rec := &recorder{}
	v := newView(rec)
	m := testModel(Actions{})

	v.SessionStarted(tts.SessionAsk)
	v.StateChanged(tts.StateIdle, tts.StateLoading)
	m = rec.feed(m)
	if !strings.Contains(m.View(), "Working out what you asked...") {
		t.Errorf("loading view = %q", m.View())
	}

	a := v.Append("Seoul is the capital.")
	b := v.Append("It is large.")
	v.Highlight(a)
	v.StateChanged(tts.StateLoading, tts.StatePlaying)
	m = rec.feed(m)

	if a != 0 || b != 1 {
		t.Errorf("anchors = %d, %d", a, b)
	}
	view := m.View()
	if !strings.Contains(view, "Seoul is the capital.") || !strings.Contains(view, "It is large.") {
		t.Errorf("view = %q", view)
	}
	if !strings.Contains(view, "Pause audio") {
		t.Errorf("status should offer pause while playing: %q", view)
	}
	if m.current != a {
		t.Errorf("current = %d, want %d", m.current, a)
	}

	v.Unhighlight(b)
	m = rec.feed(m)
	if m.current != a {
		t.Error("unhighlighting another sentence must not clear the current one")
	}
	v.Unhighlight(a)
	m = rec.feed(m)
	if m.current != tts.NoAnchor {
		t.Error("highlight should be cleared")
	}

	v.Reset()
	if got := v.Append("New."); got != 0 {
		t.Errorf("anchor after reset = %d", got)
	}
	m = rec.feed(m)
	if len(m.sentences) != 1 || m.sentences[0] != "New." {
		t.Errorf("sentences after reset = %q", m.sentences)
	}
}

func TestShowErrorReplacesTranscript(t *testing.T) {
	rec := &recorder{}
	v := newView(rec)
	m := testModel(Actions{})

	v.Append("Partial.")
	v.ShowError("Something went wrong.")
	v.StateChanged(tts.StateLoading, tts.StateDisabled)
	m = rec.feed(m)

	view := m.View()
	if strings.Contains(view, "Partial.") {
		t.Error("error should replace the transcript")
	}
	if !strings.Contains(view, "Something went wrong.") || !strings.Contains(view, "Audio unavailable") {
		t.Errorf("view = %q", view)
	}
}

func TestLoadingMessagesRotate(t *testing.T) {
	m := testModel(Actions{})
	next, cmd := m.Update(stateMsg(tts.StateLoading))
	m = next.(model)
	if cmd == nil {
		t.Fatal("entering loading should schedule a rotation")
	}
	first := m.loading[m.loadingIdx]

	next, _ = m.Update(rotateMsg(m.loadingGen))
	m = next.(model)
	if m.loading[m.loadingIdx] == first {
		t.Error("loading message should change")
	}

	// a rotation from an older loading period is ignored
	idx := m.loadingIdx
	next, cmd = m.Update(rotateMsg(m.loadingGen - 1))
	m = next.(model)
	if m.loadingIdx != idx || cmd != nil {
		t.Error("stale rotation should be dropped")
	}
}

func TestKeys(t *testing.T) {
	var mu sync.Mutex
	calls := map[string]int{}
	count := func(name string) func() {
		return func() {
			mu.Lock()
			calls[name]++
			mu.Unlock()
		}
	}
	m := testModel(Actions{
		Toggle: count("toggle"),
		Save:   count("save"),
		Replay: count("replay"),
	})

	for _, key := range []tea.KeyMsg{
		{Type: tea.KeySpace, Runes: []rune{' '}},
		{Type: tea.KeyRunes, Runes: []rune{'s'}},
		{Type: tea.KeyRunes, Runes: []rune{'r'}},
	} {
		_, cmd := m.Update(key)
		if cmd == nil {
			t.Fatalf("key %q produced no command", key.String())
		}
		cmd()
	}

	mu.Lock()
	defer mu.Unlock()
	for _, name := range []string{"toggle", "save", "replay"} {
		if calls[name] != 1 {
			t.Errorf("%s called %d times", name, calls[name])
		}
	}
}

func TestQuitKey(t *testing.T) {
	m := testModel(Actions{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should quit")
	}
}

func TestNoticeExpires(t *testing.T) {
	m := testModel(Actions{})
	next, _ := m.Update(noticeMsg("Saved to the archive."))
	m = next.(model)
	if !strings.Contains(m.View(), "Saved to the archive.") {
		t.Error("notice not shown")
	}
	next, _ = m.Update(noticeExpireMsg(m.noticeGen))
	m = next.(model)
	if strings.Contains(m.View(), "Saved to the archive.") {
		t.Error("notice should expire")
	}
}

func TestTranscriptWraps(t *testing.T) {
	m := testModel(Actions{})
	m.cfg.Width = 30
	for i, s := range []string{"The first sentence is here.", "A second one follows it.", "Short."} {
		m.anchors[tts.Anchor(i)] = i
		m.sentences = append(m.sentences, s)
	}
	for _, line := range strings.Split(m.transcriptView(), "\n") {
		if len(line) > 28 {
			t.Errorf("line %q is wider than 28", line)
		}
	}
}

func TestPlain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlain(&buf, 0)
	var tr tts.Transcript = p

	tr.Reset()
	if a := tr.Append("One."); a != 0 {
		t.Errorf("anchor = %d", a)
	}
	tr.Highlight(0)
	tr.Append("Two.")
	tr.ShowError("failed")
	p.Notify("saved")

	want := "One.\nTwo.\nerror: failed\n-- saved\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}
