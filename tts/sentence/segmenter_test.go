package sentence

import (
	"reflect"
	"strings"
	"testing"
)

func TestFeed(t *testing.T) {
	tests := []struct {
		name      string
		buffer    string
		chunk     string
		sentences []string
		remainder string
	}{
		{
			name:      "empty input",
			buffer:    "",
			chunk:     "",
			sentences: nil,
			remainder: "",
		},
		{
			name:      "no terminator yet",
			buffer:    "",
			chunk:     "Hello wor",
			sentences: nil,
			remainder: "Hello wor",
		},
		{
			name:      "completes buffered sentence",
			buffer:    "Hello wor",
			chunk:     "ld. How",
			sentences: []string{"Hello world."},
			remainder: " How",
		},
		{
			name:      "all terminators",
			buffer:    "",
			chunk:     "Really? Yes! Fine.",
			sentences: []string{"Really?", "Yes!", "Fine."},
			remainder: "",
		},
		{
			name:      "korean text",
			buffer:    "",
			chunk:     "경복궁입니다. 아름답죠? 가",
			sentences: []string{"경복궁입니다.", "아름답죠?"},
			remainder: " 가",
		},
		{
			name:      "decimal splits",
			buffer:    "",
			chunk:     "It costs 3.5 dollars.",
			sentences: []string{"It costs 3.", "5 dollars."},
			remainder: "",
		},
		{
			name:      "ellipsis keeps bare marks",
			buffer:    "",
			chunk:     "Wait...",
			sentences: []string{"Wait.", ".", "."},
			remainder: "",
		},
		{
			name:      "whitespace only before mark is trimmed",
			buffer:    "   ",
			chunk:     "\n",
			sentences: nil,
			remainder: "   \n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rest := Feed(tt.buffer, tt.chunk)
			if !reflect.DeepEqual(got, tt.sentences) {
				t.Errorf("Feed() sentences = %q, want %q", got, tt.sentences)
			}
			if rest != tt.remainder {
				t.Errorf("Feed() remainder = %q, want %q", rest, tt.remainder)
			}
		})
	}
}

func TestFlush(t *testing.T) {
	tests := []struct {
		remainder string
		want      string
		ok        bool
	}{
		{"", "", false},
		{"   ", "", false},
		{"\t\n", "", false},
		{" trailing words ", "trailing words", true},
	}

	for _, tt := range tests {
		got, ok := Flush(tt.remainder)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Flush(%q) = (%q, %v), want (%q, %v)", tt.remainder, got, ok, tt.want, tt.ok)
		}
	}
}

func TestChunkBoundaryIndependence(t *testing.T) {
	texts := []string{
		"Hello world. How are you? Fine.",
		"이곳은 경복궁입니다. 조선 왕조의 법궁이죠! 정말 멋지지 않나요? 끝",
		"No marks at all",
		"..!?  a. b",
	}

	for _, text := range texts {
		want := Split(text)
		for i := 0; i <= len(text); i++ {
			var got []string
			out, rest := Feed("", text[:i])
			got = append(got, out...)
			out, rest = Feed(rest, text[i:])
			got = append(got, out...)
			if last, ok := Flush(rest); ok {
				got = append(got, last)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("split at %d of %q: got %q, want %q", i, text, got, want)
			}
		}
	}
}

func TestSplitExample(t *testing.T) {
	var b Buffer
	var got []string
	got = append(got, b.Write("Hello world. How are")...)
	got = append(got, b.Write(" you? Fine.")...)
	if last, ok := b.Flush(); ok {
		got = append(got, last)
	}

	want := []string{"Hello world.", "How are you?", "Fine."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
	if !reflect.DeepEqual(Split("Hello world. How are you? Fine."), want) {
		t.Errorf("Split() disagrees with streamed segmentation")
	}
}

func TestBufferFlushResets(t *testing.T) {
	var b Buffer
	if out := b.Write("no end"); len(out) != 0 {
		t.Fatalf("unexpected sentences %q", out)
	}
	if b.Pending() != "no end" {
		t.Errorf("Pending() = %q", b.Pending())
	}
	if s, ok := b.Flush(); !ok || s != "no end" {
		t.Errorf("Flush() = (%q, %v)", s, ok)
	}
	if _, ok := b.Flush(); ok {
		t.Error("second Flush() should be empty")
	}

	b.Write("dropped")
	b.Reset()
	if b.Pending() != "" {
		t.Error("Reset() should clear pending text")
	}
}

func TestSpeakable(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Seoul is lovely.", "Seoul is lovely."},
		{"strong", "**Seoul** is lovely.", "Seoul is lovely."},
		{"emphasis", "It is *very* old.", "It is very old."},
		{"link", "Visit [Gyeongbokgung](https://example.com) today.", "Visit Gyeongbokgung today."},
		{"code", "Run `docent` now.", "Run docent now."},
		{"intraword underscore", "snake_case words.", "snake_case words."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Speakable(tt.input); got != tt.want {
				t.Errorf("Speakable(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSpeakableKeepsTerminator(t *testing.T) {
	for _, s := range Split("**First** one. Second _one_? Third!") {
		got := Speakable(s)
		if !strings.ContainsAny(got[len(got)-1:], Terminators) {
			t.Errorf("Speakable(%q) = %q lost its terminator", s, got)
		}
	}
}
