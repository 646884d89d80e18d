package engines

import (
	"errors"
	"testing"

	"github.com/dgnsrekt/docent/tts"
	"github.com/dgnsrekt/docent/tts/engines/console"
	"github.com/dgnsrekt/docent/tts/engines/mock"
)

// TestFallbackVoice tests the fallback mechanism.
func TestFallbackVoice(t *testing.T) {
	primary := mock.New()
	primary.SetSpeakError(errors.New("no audio device"))
	secondary := mock.New()
	secondary.SetAutoFinish(true)

	voice := NewFallback(primary, secondary, 2)
	u := tts.Utterance{Text: "Hello."}

	// First attempt fails (count = 1)
	if err := voice.Speak(u, func(error) {}); err == nil {
		t.Error("Expected first attempt to fail")
	}

	// Second attempt switches and succeeds on the fallback
	finished := false
	if err := voice.Speak(u, func(err error) { finished = err == nil }); err != nil {
		t.Errorf("Expected second attempt to succeed with fallback: %v", err)
	}
	if !finished || !voice.UsingFallback() {
		t.Errorf("finished = %v, UsingFallback() = %v", finished, voice.UsingFallback())
	}

	_ = voice.Speak(u, func(error) {})
	if n := len(secondary.Spoken()); n != 2 {
		t.Errorf("fallback spoke %d utterances, want 2", n)
	}

	voice.Reset()
	if voice.UsingFallback() {
		t.Error("Reset() should switch back to the primary voice")
	}
}

// TestFallbackAsyncFailure tests switching on a failure reported through
// the completion callback.
func TestFallbackAsyncFailure(t *testing.T) {
	primary := mock.New()
	secondary := mock.New()
	secondary.SetAutoFinish(true)
	voice := NewFallback(primary, secondary, 1)

	var got []error
	_ = voice.Speak(tts.Utterance{Text: "Hello."}, func(err error) { got = append(got, err) })
	primary.Fail(errors.New("piper crashed"))

	if len(got) != 1 || got[0] != nil {
		t.Errorf("done calls = %v, want one nil after retry", got)
	}
	if len(secondary.Spoken()) != 1 {
		t.Error("utterance should be retried on the fallback voice")
	}
}

// TestFallbackPause tests that pausing follows the active voice.
func TestFallbackPause(t *testing.T) {
	primary := mock.New()
	voice := NewFallback(primary, console.New(nil, 160), 1)

	if err := voice.Pause(); err != nil {
		t.Errorf("Pause() with native primary = %v", err)
	}

	primary.SetSpeakError(errors.New("gone"))
	_ = voice.Speak(tts.Utterance{Text: "x"}, func(error) {})
	if err := voice.Pause(); err == nil {
		t.Error("Pause() on the console fallback should fail")
	}
	_ = voice.Cancel()
}

func TestNew(t *testing.T) {
	tests := []struct {
		engine string
		check  func(tts.Voice) bool
	}{
		{tts.EngineMock, func(v tts.Voice) bool { _, ok := v.(*mock.Voice); return ok }},
		{tts.EngineConsole, func(v tts.Voice) bool { _, ok := v.(*console.Voice); return ok }},
		{tts.EngineNone, func(v tts.Voice) bool { _, ok := v.(Unavailable); return ok }},
	}
	for _, tt := range tests {
		t.Run(tt.engine, func(t *testing.T) {
			cfg := tts.DefaultVoiceConfig()
			cfg.Engine = tt.engine
			v, err := New(cfg, Deps{})
			if err != nil {
				t.Fatal(err)
			}
			if !tt.check(v) {
				t.Errorf("New() = %T", v)
			}
		})
	}

	if _, err := New(tts.VoiceConfig{Engine: "espeak"}, Deps{}); err == nil {
		t.Error("New() should reject unknown engines")
	}
}

func TestNewFallsBackToConsole(t *testing.T) {
	cfg := tts.DefaultVoiceConfig()
	cfg.Engine = tts.EngineGTTS
	cfg.GTTS.Binary = "/nonexistent/gtts-cli"
	v, err := New(cfg, Deps{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := v.(*console.Voice); !ok {
		t.Errorf("New() = %T, want the console voice", v)
	}
}

func TestUnavailable(t *testing.T) {
	err := Unavailable{}.Speak(tts.Utterance{Text: "x"}, func(error) {})
	if !errors.Is(err, tts.ErrVoiceUnavailable) {
		t.Errorf("Speak() = %v", err)
	}
}
