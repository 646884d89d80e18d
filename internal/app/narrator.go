// Package app ties narration together: it starts sessions on the
// controller, feeds them from the generator, and keeps the last finished
// description around so it can be archived.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/text/message"

	"github.com/dgnsrekt/docent/generate"
	"github.com/dgnsrekt/docent/internal/archive"
	"github.com/dgnsrekt/docent/internal/credentials"
	"github.com/dgnsrekt/docent/tts"
)

// ErrNothingToSave is returned by Save when no finished image description
// is waiting to be archived.
var ErrNothingToSave = errors.New("no finished image description to save")

// ErrNoArchive is returned by Save when no archive is configured.
var ErrNoArchive = errors.New("archive is not configured")

// Generator produces narration streams.
type Generator interface {
	Describe(ctx context.Context, img generate.Image) (tts.Stream, error)
	Ask(ctx context.Context, question string) (tts.Stream, error)
}

// GeneratorFactory builds a generator for an API key.
type GeneratorFactory func(ctx context.Context, key string) (Generator, error)

// pending is a finished description that has not been saved yet.
type pending struct {
	image generate.Image
	text  string
}

// Narrator runs one narration session at a time.
type Narrator struct {
	controller *tts.Controller
	archive    *archive.Archive
	creds      *credentials.Store
	factory    GeneratorFactory
	printer    *message.Printer
	logger     *log.Logger

	notify       func(msg string)
	onCredential func(err error)

	mu      sync.Mutex
	gen     Generator
	current string // id of the newest session
	last    *pending
	runs    sync.WaitGroup
}

// Option configures a Narrator.
type Option func(*Narrator)

// WithArchive enables saving.
func WithArchive(a *archive.Archive) Option {
	return func(n *Narrator) { n.archive = a }
}

// WithCredentials sets the store that caches the API key. It is cleared
// when the key is rejected.
func WithCredentials(s *credentials.Store) Option {
	return func(n *Narrator) { n.creds = s }
}

// WithGeneratorFactory sets how a generator is rebuilt after SetKey.
func WithGeneratorFactory(f GeneratorFactory) Option {
	return func(n *Narrator) { n.factory = f }
}

// WithPrinter sets the printer for status messages.
func WithPrinter(p *message.Printer) Option {
	return func(n *Narrator) { n.printer = p }
}

// WithNotify sets where short status messages go, such as "saved".
func WithNotify(fn func(msg string)) Option {
	return func(n *Narrator) { n.notify = fn }
}

// OnCredentialError sets the callback that asks the user for a new key.
// It runs after the cached key has been cleared.
func OnCredentialError(fn func(err error)) Option {
	return func(n *Narrator) { n.onCredential = fn }
}

// New creates a narrator that speaks through controller.
func New(controller *tts.Controller, gen Generator, opts ...Option) *Narrator {
	n := &Narrator{
		controller: controller,
		gen:        gen,
		printer:    tts.NewPrinter("en"),
		logger:     log.WithPrefix("narrator"),
		notify:     func(string) {},
	}
	for _, opt := range opts {
		opt(n)
	}

	controller.OnError(func(err error) {
		if tts.Classify(err) == tts.KindEngine {
			n.notify(n.printer.Sprintf(tts.MsgVoiceUnavailable))
		}
	})
	return n
}

// Controller returns the playback controller.
func (n *Narrator) Controller() *tts.Controller {
	return n.controller
}

// Describe narrates img in a new session, cancelling the current one. The
// returned channel receives the result once the stream ends.
func (n *Narrator) Describe(ctx context.Context, img generate.Image) <-chan tts.Result {
	return n.start(ctx, tts.SessionDescribe, &img, func(ctx context.Context, g Generator) (tts.Stream, error) {
		return g.Describe(ctx, img)
	})
}

// Ask answers question in a new session, cancelling the current one.
func (n *Narrator) Ask(ctx context.Context, question string) <-chan tts.Result {
	return n.start(ctx, tts.SessionAsk, nil, func(ctx context.Context, g Generator) (tts.Stream, error) {
		return g.Ask(ctx, question)
	})
}

// Replay speaks an archived item. With held set, playback waits for the
// user to press play.
func (n *Narrator) Replay(ctx context.Context, item archive.Item, held bool) <-chan tts.Result {
	var opts []tts.SessionOption
	if held {
		opts = append(opts, tts.Held())
	}
	s := n.controller.BeginSession(ctx, tts.SessionReplay, opts...)
	n.mu.Lock()
	n.current = s.ID
	n.last = nil
	n.mu.Unlock()

	out := make(chan tts.Result, 1)
	n.runs.Add(1)
	go func() {
		defer n.runs.Done()
		out <- n.controller.Consume(s.Context(), s, tts.TextStream(item.Description))
		close(out)
	}()
	return out
}

type opener func(ctx context.Context, g Generator) (tts.Stream, error)

func (n *Narrator) start(ctx context.Context, kind tts.SessionKind, img *generate.Image, open opener) <-chan tts.Result {
	s := n.controller.BeginSession(ctx, kind)
	n.mu.Lock()
	n.current = s.ID
	n.last = nil
	n.mu.Unlock()

	out := make(chan tts.Result, 1)
	n.runs.Add(1)
	go func() {
		defer n.runs.Done()
		defer close(out)

		res := n.run(s, open)
		n.finished(res, img)
		out <- res
	}()
	return out
}

func (n *Narrator) run(s *tts.Session, open opener) tts.Result {
	n.mu.Lock()
	gen := n.gen
	n.mu.Unlock()

	var (
		stream tts.Stream
		err    error
	)
	if gen == nil {
		err = tts.ErrNotInitialized
	} else {
		stream, err = open(s.Context(), gen)
	}
	if err != nil {
		stream = failed(err)
	}
	return n.controller.Consume(s.Context(), s, stream)
}

func (n *Narrator) finished(res tts.Result, img *generate.Image) {
	switch {
	case res.Completed():
		n.logger.Debug("Session finished", "id", res.SessionID, "sentences", len(res.Sentences))
		if img == nil || res.Text == "" {
			return
		}
		n.mu.Lock()
		if n.current == res.SessionID {
			n.last = &pending{image: *img, text: res.Text}
		}
		n.mu.Unlock()
	case tts.Classify(res.Err) == tts.KindCanceled:
		n.logger.Debug("Session canceled", "id", res.SessionID)
	case tts.IsCredentialError(res.Err):
		n.credentialFailed(res.Err)
	default:
		n.logger.Warn("Session failed", "id", res.SessionID, "kind", res.Kind, "err", res.Err)
	}
}

// credentialFailed forgets the cached key and asks for another.
func (n *Narrator) credentialFailed(err error) {
	n.logger.Warn("API key rejected", "err", err)
	if n.creds != nil && !errors.Is(err, tts.ErrNotInitialized) {
		if cerr := n.creds.Clear(); cerr != nil {
			n.logger.Error("Clearing cached key", "err", cerr)
		}
	}
	n.mu.Lock()
	if !errors.Is(err, tts.ErrNotInitialized) {
		n.gen = nil
	}
	n.mu.Unlock()

	if n.onCredential != nil {
		n.onCredential(err)
	}
}

// SetKey stores key and rebuilds the generator with it.
func (n *Narrator) SetKey(ctx context.Context, key string) error {
	if n.factory == nil {
		return errors.New("no generator factory configured")
	}
	gen, err := n.factory(ctx, key)
	if err != nil {
		return err
	}
	if n.creds != nil {
		if err := n.creds.Save(key); err != nil {
			return fmt.Errorf("saving API key: %w", err)
		}
	}
	n.mu.Lock()
	n.gen = gen
	n.mu.Unlock()
	return nil
}

// CanSave reports whether a finished description is waiting to be saved.
func (n *Narrator) CanSave() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last != nil
}

// Save archives the last finished image description. The outcome is also
// reported through the notify callback.
func (n *Narrator) Save() (archive.Item, error) {
	n.mu.Lock()
	p := n.last
	n.mu.Unlock()

	switch {
	case p == nil:
		n.notify(n.printer.Sprintf(tts.MsgNothingToSave))
		return archive.Item{}, ErrNothingToSave
	case n.archive == nil:
		n.notify(n.printer.Sprintf(tts.MsgSaveFailed))
		return archive.Item{}, ErrNoArchive
	}

	item, err := n.archive.Save(archive.Item{
		ImageData:   p.image.Data,
		MIMEType:    p.image.MIMEType,
		Description: p.text,
	})
	switch {
	case errors.Is(err, archive.ErrQuotaExceeded):
		n.notify(n.printer.Sprintf(tts.MsgQuotaExceeded))
		return item, err
	case err != nil:
		n.logger.Error("Saving", "err", err)
		n.notify(n.printer.Sprintf(tts.MsgSaveFailed))
		return item, err
	}

	n.mu.Lock()
	if n.last == p {
		n.last = nil
	}
	n.mu.Unlock()
	n.notify(n.printer.Sprintf(tts.MsgSaved))
	return item, nil
}

// Toggle pauses or resumes playback.
func (n *Narrator) Toggle() { n.controller.Toggle() }

// Stop cancels the current session.
func (n *Narrator) Stop() { n.controller.Stop() }

// Close stops the current session, waits for its goroutine and closes the
// controller.
func (n *Narrator) Close() {
	n.controller.Stop()
	n.runs.Wait()
	n.controller.Close()
}

func failed(err error) tts.Stream {
	return func(yield func(tts.Chunk, error) bool) {
		yield(tts.Chunk{}, err)
	}
}
