package piper

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/docent/internal/cache"
	"github.com/dgnsrekt/docent/tts"
	"github.com/dgnsrekt/docent/tts/audio"
)

// Synthesizer turns a sentence into raw PCM.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Voice synthesizes each utterance with piper and plays it. It supports
// native pause through the audio player.
type Voice struct {
	synth  Synthesizer
	player *audio.Player
	cache  *cache.Cache
	key    func(text string) string
	volume float64
	logger *log.Logger

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Option configures a Voice.
type Option func(*Voice)

// WithCache reuses synthesized audio across utterances. key maps sentence
// text to a cache key.
func WithCache(c *cache.Cache, key func(text string) string) Option {
	return func(v *Voice) {
		v.cache = c
		v.key = key
	}
}

// WithVolume scales every sample before playback.
func WithVolume(volume float64) Option {
	return func(v *Voice) { v.volume = volume }
}

// New creates a piper voice from configuration.
func New(cfg tts.VoiceConfig, player *audio.Player, opts ...Option) (*Voice, error) {
	proc, err := NewProcess(cfg.Piper)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithVolume(cfg.Volume)}, opts...)
	return NewWithSynthesizer(proc, player, opts...), nil
}

// NewWithSynthesizer creates a voice around any synthesizer.
func NewWithSynthesizer(synth Synthesizer, player *audio.Player, opts ...Option) *Voice {
	v := &Voice{
		synth:  synth,
		player: player,
		volume: 1.0,
		logger: log.WithPrefix("piper"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Speak synthesizes u in the background and plays it.
func (v *Voice) Speak(u tts.Utterance, done func(error)) error {
	v.mu.Lock()
	v.stopLocked()
	v.gen++
	gen := v.gen
	ctx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel
	v.mu.Unlock()

	go func() {
		pcm, err := v.load(ctx, u.Text)

		v.mu.Lock()
		if gen != v.gen {
			v.mu.Unlock()
			return
		}
		if err == nil && len(pcm) > 0 {
			err = v.player.Play(pcm, func() { done(nil) })
			v.mu.Unlock()
			if err != nil {
				done(err)
			}
			return
		}
		v.mu.Unlock()
		// nothing to say, or synthesis failed
		done(err)
	}()
	return nil
}

func (v *Voice) load(ctx context.Context, text string) ([]byte, error) {
	var key string
	if v.cache != nil {
		key = v.key(text)
		if pcm, ok := v.cache.Get(key); ok {
			v.logger.Debug("Cache hit", "text", text)
			return pcm, nil
		}
	}

	pcm, err := v.synth.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	audio.ScaleVolume(pcm, v.volume)

	if v.cache != nil && len(pcm) > 0 {
		if err := v.cache.Put(key, pcm); err != nil {
			v.logger.Debug("Not caching audio", "err", err)
		}
	}
	return pcm, nil
}

// Cancel stops synthesis and playback of the current utterance.
func (v *Voice) Cancel() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	v.stopLocked()
	return nil
}

func (v *Voice) stopLocked() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.player.Stop()
}

// Pause holds playback. It fails while the sentence is still being
// synthesized.
func (v *Voice) Pause() error {
	return v.player.Pause()
}

// Resume continues paused playback.
func (v *Voice) Resume() error {
	return v.player.Resume()
}
