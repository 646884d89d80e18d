package tts

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgnsrekt/docent/tts/sentence"
)

// Result describes how a consumed stream ended.
type Result struct {
	SessionID string
	Kind      SessionKind
	Text      string   // everything the stream produced
	Sentences []string // sentences delivered, in order
	Err       error
}

// Completed reports whether the stream ran to its end.
func (r Result) Completed() bool {
	return r.Err == nil
}

// Consume reads stream to its end on the calling goroutine, delivering
// each completed sentence to the transcript and the speech queue. It stops
// early when ctx or the session is cancelled, and never delivers into a
// session that is no longer current.
//
// A stream error aborts the session: the transcript shows a failure message
// and audio is disabled. Partial sentences are discarded.
func (c *Controller) Consume(ctx context.Context, s *Session, stream Stream) Result {
	res := Result{SessionID: s.ID, Kind: s.Kind}
	canceled := func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return s.ctx.Err()
	}

	var (
		buf  sentence.Buffer
		full strings.Builder
	)
	for chunk, err := range stream {
		if cerr := canceled(); cerr != nil {
			res.Err = fmt.Errorf("%w: %w", ErrSessionCanceled, cerr)
			res.Text = full.String()
			c.finish(s)
			return res
		}
		if err != nil {
			res.Err = err
			res.Text = full.String()
			c.fail(s, err)
			return res
		}
		if chunk.Text == "" {
			continue
		}
		full.WriteString(chunk.Text)
		for _, text := range buf.Write(chunk.Text) {
			c.deliver(s, text)
			res.Sentences = append(res.Sentences, text)
		}
	}

	res.Text = full.String()
	if cerr := canceled(); cerr != nil {
		res.Err = fmt.Errorf("%w: %w", ErrSessionCanceled, cerr)
		c.finish(s)
		return res
	}
	if last, ok := buf.Flush(); ok {
		c.deliver(s, last)
		res.Sentences = append(res.Sentences, last)
	}
	c.finish(s)
	return res
}

// Replay narrates a finished text as a new session, as if it had arrived
// in one chunk.
func (c *Controller) Replay(ctx context.Context, text string, opts ...SessionOption) Result {
	s := c.BeginSession(ctx, SessionReplay, opts...)
	return c.Consume(ctx, s, TextStream(text))
}
