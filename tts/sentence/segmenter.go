// Package sentence turns streamed text into speakable sentences.
package sentence

import "strings"

// Terminators are the marks that end a sentence. Nothing else is considered:
// abbreviations, decimals and ellipses are split like any other mark.
const Terminators = ".?!"

// Feed appends chunk to buffer and cuts every complete sentence out of the
// result. Sentences are trimmed and empty ones dropped. The returned
// remainder is the text after the last terminator and must be passed back
// in with the next chunk.
func Feed(buffer, chunk string) (sentences []string, remainder string) {
	buf := buffer + chunk
	for {
		i := strings.IndexAny(buf, Terminators)
		if i < 0 {
			break
		}
		if s := strings.TrimSpace(buf[:i+1]); s != "" {
			sentences = append(sentences, s)
		}
		buf = buf[i+1:]
	}
	return sentences, buf
}

// Flush returns the trimmed remainder as a final sentence, if there is one.
func Flush(remainder string) (string, bool) {
	s := strings.TrimSpace(remainder)
	return s, s != ""
}

// Split segments a complete text as if it had arrived in a single chunk.
func Split(text string) []string {
	sentences, rest := Feed("", text)
	if last, ok := Flush(rest); ok {
		sentences = append(sentences, last)
	}
	return sentences
}

// Buffer is a stateful wrapper around Feed and Flush for a single stream.
type Buffer struct {
	pending string
}

// Write feeds a chunk and returns the sentences it completed.
func (b *Buffer) Write(chunk string) []string {
	var out []string
	out, b.pending = Feed(b.pending, chunk)
	return out
}

// Flush drains the buffer.
func (b *Buffer) Flush() (string, bool) {
	s, ok := Flush(b.pending)
	b.pending = ""
	return s, ok
}

// Reset discards any pending text.
func (b *Buffer) Reset() {
	b.pending = ""
}

// Pending returns the text waiting for a terminator.
func (b *Buffer) Pending() string {
	return b.pending
}
