package tts_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dgnsrekt/docent/tts"
	"github.com/dgnsrekt/docent/tts/engines/mock"
)

// scheduler defers posted work until run is called, like the controller
// loop does.
type scheduler struct {
	pending []func()
}

func (s *scheduler) post(f func()) {
	s.pending = append(s.pending, f)
}

func (s *scheduler) run() {
	for len(s.pending) > 0 {
		f := s.pending[0]
		s.pending = s.pending[1:]
		f()
	}
}

// manualVoice hands out completion callbacks so tests can fire them late.
type manualVoice struct {
	texts   []string
	dones   []func(error)
	cancels int
}

func (v *manualVoice) Speak(u tts.Utterance, done func(error)) error {
	v.texts = append(v.texts, u.Text)
	v.dones = append(v.dones, done)
	return nil
}

func (v *manualVoice) Cancel() error {
	v.cancels++
	return nil
}

func entry(text string, anchor int) tts.Entry {
	return tts.Entry{Utterance: tts.Utterance{Text: text, Lang: "ko-KR"}, Anchor: tts.Anchor(anchor)}
}

func newTestQueue(voice tts.Voice) (*tts.SpeechQueue, *mock.Transcript, *scheduler) {
	tr := mock.NewTranscript()
	s := &scheduler{}
	return tts.NewSpeechQueue(voice, tr, s.post), tr, s
}

func TestQueuePlaysInOrder(t *testing.T) {
	voice := mock.New()
	q, tr, s := newTestQueue(voice)

	starts, idles := 0, 0
	q.OnStart(func() { starts++ })
	q.OnIdle(func() { idles++ })

	q.Enqueue(entry("A.", 0))
	q.Enqueue(entry("B.", 1))
	q.Enqueue(entry("C.", 2))

	if got := voice.Spoken(); !reflect.DeepEqual(got, []string{"A."}) {
		t.Fatalf("spoken = %v, want only the head", got)
	}
	if tr.Highlighted() != 0 {
		t.Errorf("highlighted = %d, want 0", tr.Highlighted())
	}

	for i := 0; i < 3; i++ {
		if !voice.Finish() {
			t.Fatalf("finish %d: nothing speaking", i)
		}
		s.run()
	}

	if got := voice.Spoken(); !reflect.DeepEqual(got, []string{"A.", "B.", "C."}) {
		t.Errorf("spoken = %v", got)
	}
	if got := tr.Highlights(); !reflect.DeepEqual(got, []tts.Anchor{0, 1, 2}) {
		t.Errorf("highlights = %v", got)
	}
	if tr.Highlighted() != tts.NoAnchor {
		t.Error("highlight should be cleared when the queue drains")
	}
	if starts != 1 || idles != 1 {
		t.Errorf("starts = %d, idles = %d, want 1 and 1", starts, idles)
	}
	if q.Len() != 0 || q.Speaking() {
		t.Error("queue should be empty and silent")
	}
}

func TestQueueCancelAllThenEnqueue(t *testing.T) {
	voice := &manualVoice{}
	q, _, s := newTestQueue(voice)

	q.Enqueue(entry("A.", 0))
	q.Enqueue(entry("B.", 1))
	q.CancelAll()
	q.Enqueue(entry("X.", 2))

	// A's completion arrives after the cancel and must not pop X.
	voice.dones[0](nil)
	s.run()

	if !reflect.DeepEqual(voice.texts, []string{"A.", "X."}) {
		t.Errorf("spoken = %v, want [A. X.]", voice.texts)
	}
	if q.Len() != 1 || !q.Speaking() {
		t.Errorf("X should still be speaking: len = %d, speaking = %v", q.Len(), q.Speaking())
	}
	if voice.cancels != 1 {
		t.Errorf("cancels = %d, want 1", voice.cancels)
	}

	voice.dones[1](nil)
	s.run()
	if q.Len() != 0 {
		t.Error("X should have been dequeued")
	}
}

func TestQueueCancelAllWhenIdle(t *testing.T) {
	voice := &manualVoice{}
	q, _, _ := newTestQueue(voice)

	q.CancelAll()
	if voice.cancels != 0 {
		t.Error("CancelAll with nothing playing should not touch the voice")
	}
	q.Enqueue(entry("X.", 0))
	if !reflect.DeepEqual(voice.texts, []string{"X."}) {
		t.Errorf("spoken = %v", voice.texts)
	}
}

func TestQueueNativePauseResume(t *testing.T) {
	voice := mock.New()
	q, tr, s := newTestQueue(voice)

	q.Enqueue(entry("A.", 0))
	q.Enqueue(entry("B.", 1))

	if !q.Pause() {
		t.Fatal("Pause() = false while speaking")
	}
	if q.Pause() {
		t.Error("second Pause() should be ignored")
	}
	q.Enqueue(entry("C.", 2))
	if voice.Finish() {
		t.Error("paused voice should not finish")
	}
	if !q.Resume() {
		t.Fatal("Resume() = false while paused")
	}

	if voice.Count("speak") != 1 {
		t.Errorf("resume must continue the head, got %d speaks", voice.Count("speak"))
	}
	if voice.Count("resume") != 1 {
		t.Errorf("resume calls = %d, want 1", voice.Count("resume"))
	}
	if tr.Highlighted() != 0 {
		t.Errorf("highlighted = %d, want head 0", tr.Highlighted())
	}

	voice.Finish()
	s.run()
	if got := voice.Spoken(); !reflect.DeepEqual(got, []string{"A.", "B."}) {
		t.Errorf("spoken = %v", got)
	}
}

func TestQueuePauseFallbackReplaysHead(t *testing.T) {
	voice := mock.New()
	q, tr, s := newTestQueue(voice.WithoutPause())

	q.Enqueue(entry("A.", 0))
	q.Enqueue(entry("B.", 1))

	if !q.Pause() {
		t.Fatal("Pause() = false while speaking")
	}
	if voice.Count("cancel") != 1 {
		t.Errorf("fallback pause should cancel, got %v", voice.Calls())
	}
	if q.Len() != 2 {
		t.Errorf("head must stay queued, len = %d", q.Len())
	}
	if tr.Highlighted() != 0 {
		t.Error("head should stay highlighted while paused")
	}

	q.Resume()
	if got := voice.Spoken(); !reflect.DeepEqual(got, []string{"A.", "A."}) {
		t.Errorf("spoken = %v, want head replayed", got)
	}

	voice.Finish()
	s.run()
	if got := voice.Spoken(); !reflect.DeepEqual(got, []string{"A.", "A.", "B."}) {
		t.Errorf("spoken = %v", got)
	}
}

func TestQueueNativePauseFailureFallsBack(t *testing.T) {
	voice := mock.New()
	voice.SetPauseError(errors.New("device busy"))
	q, _, _ := newTestQueue(voice)

	q.Enqueue(entry("A.", 0))
	if !q.Pause() {
		t.Fatal("Pause() = false")
	}
	if voice.Count("cancel") != 1 {
		t.Errorf("calls = %v, want a cancel after the failed pause", voice.Calls())
	}
	q.Resume()
	if voice.Count("speak") != 2 {
		t.Errorf("calls = %v, want the head spoken again", voice.Calls())
	}
}

func TestQueuePauseWhenIdle(t *testing.T) {
	q, _, _ := newTestQueue(mock.New())
	if q.Pause() {
		t.Error("Pause() with nothing playing should be a no-op")
	}
	if q.Resume() {
		t.Error("Resume() without Pause should be a no-op")
	}
}

func TestQueueVoiceFailureDisables(t *testing.T) {
	voice := mock.New()
	voice.SetSpeakError(errors.New("no audio device"))
	q, tr, _ := newTestQueue(voice)

	var got error
	q.OnError(func(err error) { got = err })

	q.Enqueue(entry("A.", 0))
	if got == nil {
		t.Fatal("OnError not called")
	}
	if !q.Disabled() || q.Len() != 0 {
		t.Errorf("queue should be disabled and empty: disabled = %v, len = %d", q.Disabled(), q.Len())
	}
	if tr.Highlighted() != tts.NoAnchor {
		t.Error("highlight should be cleared")
	}

	q.Enqueue(entry("B.", 1))
	if q.Len() != 0 {
		t.Error("disabled queue should drop entries")
	}

	q.CancelAll()
	voice.SetSpeakError(nil)
	q.Enqueue(entry("C.", 2))
	if q.Disabled() || !q.Speaking() {
		t.Error("CancelAll should re-enable the queue")
	}
}

func TestQueueVoiceFailsMidUtterance(t *testing.T) {
	voice := mock.New()
	q, _, s := newTestQueue(voice)

	var got error
	q.OnError(func(err error) { got = err })

	q.Enqueue(entry("A.", 0))
	q.Enqueue(entry("B.", 1))
	voice.Fail(errors.New("piper exited"))
	s.run()

	if got == nil || !q.Disabled() {
		t.Fatalf("failure should disable the queue: err = %v, disabled = %v", got, q.Disabled())
	}
	if n := len(voice.Spoken()); n != 1 {
		t.Errorf("spoke %d utterances after failure, want 1", n)
	}
}

func TestQueueHoldAndStart(t *testing.T) {
	voice := mock.New()
	q, _, _ := newTestQueue(voice)

	q.Hold()
	q.Enqueue(entry("A.", 0))
	q.Enqueue(entry("B.", 1))
	if len(voice.Spoken()) != 0 {
		t.Fatalf("held queue spoke %v", voice.Spoken())
	}

	if !q.Start() {
		t.Fatal("Start() = false with held entries")
	}
	if got := voice.Spoken(); !reflect.DeepEqual(got, []string{"A."}) {
		t.Errorf("spoken = %v", got)
	}
	if q.Start() {
		t.Error("Start() while speaking should be a no-op")
	}
}

func TestQueueSynchronousCompletion(t *testing.T) {
	voice := mock.New()
	voice.SetAutoFinish(true)
	q, _, s := newTestQueue(voice)

	idle := false
	q.OnIdle(func() { idle = true })

	q.Enqueue(entry("A.", 0))
	q.Enqueue(entry("B.", 1))
	s.run()

	if got := voice.Spoken(); !reflect.DeepEqual(got, []string{"A.", "B."}) {
		t.Errorf("spoken = %v", got)
	}
	if !idle {
		t.Error("queue should reach idle")
	}
}
