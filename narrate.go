package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"golang.org/x/text/message"

	"github.com/dgnsrekt/docent/generate"
	"github.com/dgnsrekt/docent/internal/app"
	"github.com/dgnsrekt/docent/internal/archive"
	"github.com/dgnsrekt/docent/internal/credentials"
	"github.com/dgnsrekt/docent/tts"
	"github.com/dgnsrekt/docent/tts/engines"
	"github.com/dgnsrekt/docent/tts/lang"
	"github.com/dgnsrekt/docent/ui"
)

// maxKeyAttempts is how many times a rejected key is asked for again in
// plain mode.
const maxKeyAttempts = 3

// session starts one narration and returns its result.
type session func(ctx context.Context) <-chan tts.Result

// narration connects a narrator to the TUI, or to plain output when
// stdout is not a terminal.
type narration struct {
	narrator *app.Narrator
	archive  *archive.Archive
	creds    *credentials.Store
	printer  *message.Printer
	program  *ui.Program
	plain    *ui.Plain
	logger   *log.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	start    func(ctx context.Context)
	idle     chan struct{}
	wantsKey atomic.Bool
	autoSave bool

	mu   sync.Mutex
	text string // last finished transcript, for replay
}

type narrationOptions struct {
	title    string
	archive  bool
	autoSave bool
}

func newNarration(ctx context.Context, o narrationOptions) (*narration, error) {
	voiceCfg, err := tts.LoadVoiceConfig(viper.GetViper())
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	keyFile, err := dataPath("credentials")
	if err != nil {
		return nil, err
	}

	n := &narration{
		creds:    credentials.NewStore(keyFile),
		printer:  tts.NewPrinter(uiCfg.Language),
		logger:   log.WithPrefix("docent"),
		idle:     make(chan struct{}, 1),
		autoSave: o.autoSave,
	}
	n.ctx, n.cancel = context.WithCancel(ctx)

	key, err := n.resolveKey()
	if err != nil {
		n.cancel()
		return nil, err
	}

	var (
		transcript tts.Transcript
		notify     func(string)
	)
	if plain {
		n.plain = ui.NewPlain(os.Stdout, int(width)) //nolint:gosec
		transcript, notify = n.plain, n.plain.Notify
	} else {
		cfg := uiCfg
		cfg.Title = o.title
		n.program = ui.NewProgram(cfg, ui.Actions{
			Start:  func() { n.start(n.ctx) },
			Toggle: func() { n.narrator.Toggle() },
			Save:   func() { _, _ = n.narrator.Save() },
			Replay: n.replayLast,
			Quit:   n.quit,
		})
		view := n.program.View()
		transcript, notify = view, view.Notify
	}

	voice, err := engines.New(voiceCfg, engines.Deps{CacheDir: audioCacheDir()})
	if err != nil {
		n.cancel()
		return nil, err //nolint:wrapcheck
	}
	controller := tts.NewController(voice, transcript,
		tts.WithPrinter(n.printer),
		tts.WithLanguage(lang.ForConfig(voiceCfg.Language, tts.DefaultLanguage)),
	)
	if n.program != nil {
		controller.OnStateChange(n.program.View().StateChanged)
	}
	controller.OnStateChange(func(_, to tts.StateType) {
		if to == tts.StateIdle || to == tts.StateDisabled {
			select {
			case n.idle <- struct{}{}:
			default:
			}
		}
	})

	if o.archive {
		n.archive, err = openArchive()
		if err != nil {
			controller.Close()
			n.cancel()
			return nil, err
		}
	}

	gen, err := newGenerator(ctx, key)
	if err != nil {
		n.logger.Warn("Could not create generator", "err", err)
		gen = nil
	}
	opts := []app.Option{
		app.WithCredentials(n.creds),
		app.WithGeneratorFactory(newGenerator),
		app.WithPrinter(n.printer),
		app.WithNotify(notify),
		app.OnCredentialError(func(error) { n.wantsKey.Store(true) }),
	}
	if n.archive != nil {
		opts = append(opts, app.WithArchive(n.archive))
	}
	n.narrator = app.New(controller, gen, opts...)
	return n, nil
}

func newGenerator(ctx context.Context, key string) (app.Generator, error) {
	cfg := genCfg
	cfg.APIKey = key
	g, err := generate.FromConfig(ctx, cfg)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return g, nil
}

func keyEnvs(backend string) []string {
	switch backend {
	case generate.BackendOpenAI:
		return []string{"DOCENT_API_KEY", "OPENAI_API_KEY"}
	default:
		return []string{"DOCENT_API_KEY", "GEMINI_API_KEY"}
	}
}

// resolveKey finds the API key, asking for one on the terminal when none
// is saved. Without a terminal the key stays empty and sessions report
// that one is required.
func (n *narration) resolveKey() (string, error) {
	if !genCfg.NeedsKey() {
		return "", nil
	}
	key, err := n.creds.Resolve(apiKey, keyEnvs(genCfg.Backend)...)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, credentials.ErrNoKey) {
		return "", err //nolint:wrapcheck
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", nil
	}

	key, err = credentials.Prompt(os.Stdin, os.Stderr, n.printer.Sprintf(tts.MsgEnterKey))
	if err != nil {
		return "", fmt.Errorf("unable to read API key: %w", err)
	}
	if err := n.creds.Save(key); err != nil {
		return "", err //nolint:wrapcheck
	}
	return key, nil
}

func (n *narration) describe(ctx context.Context, img generate.Image) <-chan tts.Result {
	n.started(tts.SessionDescribe)
	return n.narrator.Describe(ctx, img)
}

func (n *narration) ask(ctx context.Context, question string) <-chan tts.Result {
	n.started(tts.SessionAsk)
	return n.narrator.Ask(ctx, question)
}

func (n *narration) replay(ctx context.Context, item archive.Item, held bool) <-chan tts.Result {
	n.started(tts.SessionReplay)
	return n.narrator.Replay(ctx, item, held)
}

func (n *narration) started(kind tts.SessionKind) {
	if n.program != nil {
		n.program.View().SessionStarted(kind)
	}
}

// finished keeps the transcript of a finished session and saves it when
// asked to.
func (n *narration) finished(res tts.Result) {
	if !res.Completed() || res.Text == "" {
		return
	}
	n.mu.Lock()
	n.text = res.Text
	n.mu.Unlock()

	if n.autoSave && n.narrator.CanSave() {
		if _, err := n.narrator.Save(); err != nil {
			n.logger.Warn("Saving", "err", err)
		}
	}
}

// replayLast speaks the last finished transcript again.
func (n *narration) replayLast() {
	n.mu.Lock()
	text := n.text
	n.mu.Unlock()
	if text == "" {
		return
	}
	n.finished(<-n.replay(n.ctx, archive.Item{Description: text}, false))
}

func (n *narration) quit() {
	n.cancel()
	n.narrator.Stop()
}

// runOnce narrates a single session. In plain mode it returns once the
// voice has finished, prompting for a new key if the saved one is
// rejected.
func (n *narration) runOnce(s session) error {
	n.start = func(ctx context.Context) { n.finished(<-s(ctx)) }
	if n.program != nil {
		return n.runProgram()
	}
	defer n.close()

	for attempt := 1; ; attempt++ {
		res := <-s(n.ctx)
		n.finished(res)
		switch {
		case res.Completed():
			n.waitIdle()
			return nil
		case n.ctx.Err() != nil:
			return nil
		case n.wantsKey.Swap(false) && attempt < maxKeyAttempts && term.IsTerminal(int(os.Stdin.Fd())):
			if err := n.promptKey(); err != nil {
				return err
			}
		default:
			return res.Err
		}
	}
}

// runUntilDone runs fn until it returns or the user quits. In the TUI an
// error from fn replaces the transcript.
func (n *narration) runUntilDone(fn func(ctx context.Context) error) error {
	if n.program != nil {
		n.start = func(ctx context.Context) {
			if err := fn(ctx); err != nil {
				n.logger.Error("Stopped", "err", err)
				n.program.View().ShowError(err.Error())
			}
		}
		return n.runProgram()
	}
	defer n.close()
	return fn(n.ctx)
}

func (n *narration) runProgram() error {
	defer n.close()
	if err := n.program.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	// the rejected key is already cleared; the next run asks again
	if n.wantsKey.Load() {
		fmt.Fprintln(os.Stderr, n.printer.Sprintf(tts.MsgInvalidKey))
	}
	return nil
}

func (n *narration) promptKey() error {
	key, err := credentials.Prompt(os.Stdin, os.Stderr, n.printer.Sprintf(tts.MsgEnterKey))
	if err != nil {
		return fmt.Errorf("unable to read API key: %w", err)
	}
	return n.narrator.SetKey(n.ctx, key) //nolint:wrapcheck
}

// waitIdle blocks until the queue has spoken everything.
func (n *narration) waitIdle() {
	c := n.narrator.Controller()
	for {
		c.Sync()
		switch c.State() {
		case tts.StateIdle, tts.StateDisabled:
			return
		}
		select {
		case <-n.idle:
		case <-n.ctx.Done():
			return
		}
	}
}

func (n *narration) close() {
	n.cancel()
	n.narrator.Close()
	if n.archive != nil {
		if err := n.archive.Close(); err != nil {
			n.logger.Error("Closing archive", "err", err)
		}
	}
}
