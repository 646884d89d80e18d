package console

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/docent/tts"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		name string
		text string
		wpm  int
		want time.Duration
	}{
		{"short", "Hi.", 160, MinDuration},
		{"sixty words", strings.Repeat("word ", 60), 120, 30 * time.Second},
		{"no rate", "Hello there.", 0, MinDuration},
		// 12 hangul syllables are 24 cells, about 4 words
		{"korean", "가나다라마바사아자차카타", 240, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Duration(tt.text, tt.wpm); got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVoiceFinishes(t *testing.T) {
	var buf bytes.Buffer
	v := New(&buf, 500)

	done := make(chan error, 1)
	if err := v.Speak(tts.Utterance{Text: "Hello."}, func(err error) { done <- err }); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("done(%v)", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("utterance never finished")
	}
	if !strings.Contains(buf.String(), "Hello.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestVoiceCancel(t *testing.T) {
	v := New(nil, 500)

	done := make(chan struct{}, 1)
	_ = v.Speak(tts.Utterance{Text: "Hello."}, func(error) { done <- struct{}{} })
	_ = v.Cancel()

	select {
	case <-done:
		t.Error("cancelled utterance must not finish")
	case <-time.After(MinDuration + 100*time.Millisecond):
	}
}

func TestVoiceHasNoNativePause(t *testing.T) {
	var voice tts.Voice = New(nil, 160)
	if _, ok := voice.(tts.Pauser); ok {
		t.Error("console voice should not implement tts.Pauser")
	}
}
