// Package engines builds the configured voice.
package engines

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/docent/internal/cache"
	"github.com/dgnsrekt/docent/tts"
	"github.com/dgnsrekt/docent/tts/audio"
	"github.com/dgnsrekt/docent/tts/engines/console"
	"github.com/dgnsrekt/docent/tts/engines/gtts"
	"github.com/dgnsrekt/docent/tts/engines/mock"
	"github.com/dgnsrekt/docent/tts/engines/piper"
)

// Unavailable is a voice that refuses every utterance. Narration still
// renders text, with playback disabled.
type Unavailable struct {
	Err error
}

// Speak implements tts.Voice.
func (u Unavailable) Speak(tts.Utterance, func(error)) error {
	if u.Err != nil {
		return u.Err
	}
	return tts.ErrVoiceUnavailable
}

// Cancel implements tts.Voice.
func (Unavailable) Cancel() error { return nil }

// Deps are the resources a voice may need.
type Deps struct {
	// Out receives console voice output. Nil keeps the console voice
	// silent, for when a UI already shows the transcript.
	Out io.Writer

	// CacheDir holds synthesized audio. Empty keeps the cache in memory.
	CacheDir string
}

// New builds the voice named by cfg. A piper voice that cannot start falls
// back to the console voice; the error is logged, not returned.
func New(cfg tts.VoiceConfig, deps Deps) (tts.Voice, error) {
	logger := log.WithPrefix("voice")

	switch cfg.Engine {
	case tts.EngineMock:
		m := mock.New()
		m.SetAutoFinish(true)
		return m, nil

	case tts.EngineNone:
		return Unavailable{}, nil

	case tts.EngineConsole:
		return console.New(deps.Out, cfg.Console.WordsPerMinute), nil

	case tts.EnginePiper:
		fallback := console.New(deps.Out, cfg.Console.WordsPerMinute)
		voice, err := newPiper(cfg, deps)
		if err != nil {
			logger.Warn("Piper unavailable, using console voice", "err", err)
			return fallback, nil
		}
		return NewFallback(voice, fallback, 2), nil

	case tts.EngineGTTS:
		fallback := console.New(deps.Out, cfg.Console.WordsPerMinute)
		voice, err := newGTTS(cfg, deps)
		if err != nil {
			logger.Warn("gTTS unavailable, using console voice", "err", err)
			return fallback, nil
		}
		return NewFallback(voice, fallback, 2), nil
	}

	return nil, fmt.Errorf("unknown voice engine %q", cfg.Engine)
}

func newCache(deps Deps) (*cache.Cache, error) {
	cacheCfg := cache.DefaultConfig(deps.CacheDir)
	if deps.CacheDir == "" {
		cacheCfg.DiskCapacity = 0
	}
	return cache.New(cacheCfg)
}

func newPiper(cfg tts.VoiceConfig, deps Deps) (tts.Voice, error) {
	device, err := audio.OpenDevice(cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	c, err := newCache(deps)
	if err != nil {
		return nil, err
	}

	p := cfg.Piper
	key := func(text string) string {
		return cache.Key(text, p.Model, p.LengthScale, p.SpeakerID)
	}
	return piper.New(cfg, audio.NewPlayer(device), piper.WithCache(c, key))
}

// newGTTS plays gTTS audio through the same player and cache as piper.
func newGTTS(cfg tts.VoiceConfig, deps Deps) (tts.Voice, error) {
	synth, err := gtts.New(cfg)
	if err != nil {
		return nil, err
	}
	device, err := audio.OpenDevice(cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	c, err := newCache(deps)
	if err != nil {
		return nil, err
	}

	model := "gtts:" + synth.Lang()
	speed := 1.0
	if cfg.GTTS.Slow {
		speed = 0.5
	}
	key := func(text string) string {
		return cache.Key(text, model, speed, 0)
	}
	return piper.NewWithSynthesizer(synth, audio.NewPlayer(device),
		piper.WithVolume(cfg.Volume),
		piper.WithCache(c, key),
	), nil
}
