// Package gtts speaks with Google Translate's voice. gtts-cli fetches an
// MP3 per sentence and ffmpeg decodes it to the PCM the audio player
// expects. No API key is needed, but the voice only works online.
package gtts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/docent/tts"
)

// maxTextSize is the longest sentence Google accepts in one request.
const maxTextSize = 5000

// Synthesizer turns sentences into PCM with gtts-cli and ffmpeg.
type Synthesizer struct {
	gtts       string
	ffmpeg     string
	lang       string
	slow       bool
	sampleRate int
	timeout    time.Duration
	limiter    *rate.Limiter
}

// New locates gtts-cli and ffmpeg. A missing binary is reported as
// tts.ErrVoiceUnavailable.
func New(cfg tts.VoiceConfig) (*Synthesizer, error) {
	g := cfg.GTTS
	gttsPath, err := exec.LookPath(g.Binary)
	if err != nil {
		return nil, fmt.Errorf("gtts-cli not found, install it with pip install gtts: %w",
			errors.Join(tts.ErrVoiceUnavailable, err))
	}
	ffmpegPath, err := exec.LookPath(g.FFmpeg)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", errors.Join(tts.ErrVoiceUnavailable, err))
	}

	perMinute := g.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = tts.DefaultGTTSConfig().RequestsPerMinute
	}
	return &Synthesizer{
		gtts:       gttsPath,
		ffmpeg:     ffmpegPath,
		lang:       Language(cfg.Language),
		slow:       g.Slow,
		sampleRate: cfg.SampleRate,
		timeout:    g.Timeout,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}, nil
}

// Language maps a BCP-47 tag to the language code gtts-cli takes.
// "auto" uses the default language.
func Language(tag string) string {
	if strings.EqualFold(tag, tts.LanguageAuto) {
		tag = tts.DefaultLanguage
	}
	base, _ := language.Make(tag).Base()
	return base.String()
}

// Lang returns the language code sentences are spoken in.
func (s *Synthesizer) Lang() string { return s.lang }

// MP3Args returns the gtts-cli arguments for text.
func (s *Synthesizer) MP3Args(text string) []string {
	args := []string{text, "--lang", s.lang}
	if s.slow {
		args = append(args, "--slow")
	}
	return append(args, "--output", "-")
}

// PCMArgs returns the ffmpeg arguments that decode MP3 on stdin to raw
// 16-bit mono PCM on stdout.
func (s *Synthesizer) PCMArgs() []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", strconv.Itoa(s.sampleRate),
		"-ac", "1",
		"pipe:1",
	}
}

// Synthesize implements piper.Synthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if len(text) > maxTextSize {
		return nil, fmt.Errorf("text too long: %d bytes (max %d)", len(text), maxTextSize)
	}

	// Google blocks clients that ask too often
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	mp3, err := run(ctx, s.gtts, s.MP3Args(text), nil)
	if err != nil {
		return nil, err
	}
	if len(mp3) == 0 {
		return nil, errors.New("gtts-cli produced no audio")
	}
	pcm, err := run(ctx, s.ffmpeg, s.PCMArgs(), mp3)
	if err != nil {
		return nil, err
	}
	if len(pcm)%2 != 0 {
		pcm = pcm[:len(pcm)-1]
	}
	return pcm, nil
}

// run executes name and returns its stdout. On cancellation the process is
// interrupted first and killed if it has not exited shortly after.
func run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = 100 * time.Millisecond
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", name, ctx.Err())
		}
		return nil, fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
