package tts

import "iter"

// Chunk is one fragment of streamed text. An empty Text means the producer
// had nothing new to say.
type Chunk struct {
	Text string
}

// Stream yields chunks in order. It ends normally when iteration stops, or
// by yielding a non-nil error.
type Stream = iter.Seq2[Chunk, error]

// Anchor identifies a rendered sentence in a Transcript.
type Anchor int

// NoAnchor marks the absence of a highlighted sentence.
const NoAnchor Anchor = -1

// Utterance is a unit of speech handed to a Voice.
type Utterance struct {
	Text string // speakable text
	Lang string // BCP-47 tag, e.g. "ko-KR"
}

// Voice speaks utterances one at a time.
type Voice interface {
	// Speak starts speaking u. done is called exactly once when the
	// utterance has finished, from any goroutine, unless the utterance is
	// cancelled first. A non-nil error means the voice failed partway.
	Speak(u Utterance, done func(error)) error

	// Cancel stops the current utterance, if any.
	Cancel() error
}

// Pauser is implemented by voices that can pause and later continue the
// current utterance from where it stopped.
type Pauser interface {
	Pause() error
	Resume() error
}

// Transcript renders sentences as they arrive.
type Transcript interface {
	// Append renders text and returns its anchor.
	Append(text string) Anchor

	// Highlight marks the sentence being spoken.
	Highlight(a Anchor)

	// Unhighlight clears the mark from a sentence.
	Unhighlight(a Anchor)

	// ShowError replaces the transcript with a user-facing message.
	ShowError(msg string)

	// Reset clears the transcript for a new session.
	Reset()
}

// Entry pairs an utterance with the sentence it came from.
type Entry struct {
	Utterance Utterance
	Anchor    Anchor
}

// TextStream adapts a fixed list of strings to a Stream.
func TextStream(chunks ...string) Stream {
	return func(yield func(Chunk, error) bool) {
		for _, c := range chunks {
			if !yield(Chunk{Text: c}, nil) {
				return
			}
		}
	}
}
