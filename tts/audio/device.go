package audio

import "io"

// Device creates sinks that pull PCM from a reader.
type Device interface {
	NewSink(r io.Reader) Sink
}

// Sink plays the PCM of a single utterance.
type Sink interface {
	Play()
	Pause()
	// IsPlaying reports false once paused, or once the reader is drained
	// and the buffered audio has been played.
	IsPlaying() bool
	Close() error
}
