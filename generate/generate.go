// Package generate streams narration text from a language model.
package generate

import (
	"context"
	"iter"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/docent/tts"
)

// Image is a photo to narrate.
type Image struct {
	Data     []byte
	MIMEType string
}

// Request is one generation call.
type Request struct {
	Prompt            string
	Image             *Image
	SystemInstruction string
}

// Backend opens a text stream for a request.
type Backend interface {
	Stream(ctx context.Context, req Request) (tts.Stream, error)
}

// Generator produces narration for images and questions. It limits the
// request rate and retries requests that fail before the first chunk.
type Generator struct {
	backend Backend
	prompts Prompts
	limiter *rate.Limiter
	retry   RetryConfig
	logger  *log.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithPrompts sets the narration instructions.
func WithPrompts(p Prompts) Option {
	return func(g *Generator) { g.prompts = p }
}

// WithRateLimit allows perMinute requests per minute with a burst of one.
// Zero disables limiting.
func WithRateLimit(perMinute int) Option {
	return func(g *Generator) {
		if perMinute <= 0 {
			g.limiter = nil
			return
		}
		g.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60), 1)
	}
}

// WithRetry sets the retry policy.
func WithRetry(cfg RetryConfig) Option {
	return func(g *Generator) { g.retry = cfg }
}

// New creates a generator. A nil backend means no API key is configured;
// every call then fails with tts.ErrNotInitialized.
func New(backend Backend, opts ...Option) *Generator {
	g := &Generator{
		backend: backend,
		prompts: koreanPrompts,
		retry:   DefaultRetryConfig(),
		logger:  log.WithPrefix("generate"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Initialized reports whether the generator has a backend.
func (g *Generator) Initialized() bool {
	return g.backend != nil
}

// Describe narrates an image.
func (g *Generator) Describe(ctx context.Context, img Image) (tts.Stream, error) {
	return g.Generate(ctx, Request{
		Prompt:            g.prompts.DescribePrompt,
		Image:             &img,
		SystemInstruction: g.prompts.DescribeInstruction,
	})
}

// Ask answers a question.
func (g *Generator) Ask(ctx context.Context, question string) (tts.Stream, error) {
	return g.Generate(ctx, Request{
		Prompt:            question,
		SystemInstruction: g.prompts.AskInstruction,
	})
}

// Generate opens a stream for req. It returns once the first chunk has
// arrived, so failures to connect are reported here and retried.
//
// The returned stream holds the open response until it is ranged over. A
// caller that decides not to read it must still range it and break at the
// first chunk to release the connection.
func (g *Generator) Generate(ctx context.Context, req Request) (tts.Stream, error) {
	if g.backend == nil {
		return nil, tts.ErrNotInitialized
	}

	var stream tts.Stream
	attempt := 0
	err := retry(ctx, g.retry, func() error {
		attempt++
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		s, err := g.backend.Stream(ctx, req)
		if err == nil {
			s, err = prime(s)
		}
		if err != nil {
			g.logger.Debug("Generation attempt failed", "attempt", attempt, "err", err)
			return err
		}
		stream = s
		return nil
	})
	if err != nil {
		return nil, wrap(err)
	}
	return wrapStream(stream), nil
}

func wrap(err error) error {
	kind := tts.Classify(err)
	if statusCode(err) == 401 {
		kind = tts.KindCredentials
	}
	return tts.NewError(kind, "generate", err)
}

// wrapStream classifies errors yielded mid-stream.
func wrapStream(s tts.Stream) tts.Stream {
	return func(yield func(tts.Chunk, error) bool) {
		for c, err := range s {
			if err != nil {
				yield(tts.Chunk{}, wrap(err))
				return
			}
			if !yield(c, nil) {
				return
			}
		}
	}
}

// prime pulls the first item of s. An error before any text is returned
// directly; otherwise the returned stream replays the first item and
// continues. The producer is only released when the returned stream is
// ranged over, so callers must range it at least once, breaking out
// immediately if they no longer want the text.
func prime(s tts.Stream) (tts.Stream, error) {
	next, stop := iter.Pull2(s)
	first, err, ok := next()
	if !ok {
		stop()
		return tts.TextStream(), nil
	}
	if err != nil {
		stop()
		return nil, err
	}

	return func(yield func(tts.Chunk, error) bool) {
		defer stop()
		if !yield(first, nil) {
			return
		}
		for {
			c, err, ok := next()
			if !ok {
				return
			}
			if !yield(c, err) || err != nil {
				return
			}
		}
	}, nil
}
