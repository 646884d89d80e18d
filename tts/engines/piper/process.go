// Package piper speaks through the Piper neural TTS binary and plays the
// resulting PCM on the local audio device.
package piper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/dgnsrekt/docent/tts"
)

// Error represents Piper-specific errors.
type Error struct {
	Type    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("piper %s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("piper %s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Process runs one piper invocation per sentence with --output-raw.
type Process struct {
	binary string
	cfg    tts.PiperConfig
	config string // optional model config JSON
}

// NewProcess locates the piper binary and model. A missing binary or model
// is reported as tts.ErrVoiceUnavailable.
func NewProcess(cfg tts.PiperConfig) (*Process, error) {
	binary, err := exec.LookPath(cfg.Binary)
	if err != nil {
		return nil, &Error{
			Type:    "dependency",
			Message: "piper binary not found. Please install piper TTS: https://github.com/rhasspy/piper",
			Cause:   errors.Join(tts.ErrVoiceUnavailable, err),
		}
	}
	if _, err := os.Stat(cfg.Model); err != nil {
		return nil, &Error{
			Type:    "model",
			Message: fmt.Sprintf("model file not found: %s", cfg.Model),
			Cause:   errors.Join(tts.ErrVoiceUnavailable, err),
		}
	}

	p := &Process{binary: binary, cfg: cfg}
	if _, err := os.Stat(cfg.Model + ".json"); err == nil {
		p.config = cfg.Model + ".json"
	}
	return p, nil
}

// Args returns the command line arguments for the configured voice.
func (p *Process) Args() []string {
	args := []string{
		"--model", p.cfg.Model,
		"--output-raw",
		"--length-scale", strconv.FormatFloat(p.cfg.LengthScale, 'f', 2, 64),
		"--noise-scale", strconv.FormatFloat(p.cfg.NoiseScale, 'f', 3, 64),
		"--noise-w", strconv.FormatFloat(p.cfg.NoiseW, 'f', 3, 64),
		"--sentence-silence", strconv.FormatFloat(p.cfg.SentenceSilence.Seconds(), 'f', 2, 64),
	}
	if p.config != "" {
		args = append(args, "--config", p.config)
	}
	if p.cfg.SpeakerID > 0 {
		args = append(args, "--speaker", strconv.Itoa(p.cfg.SpeakerID))
	}
	return args
}

// Synthesize converts text to raw 16-bit mono PCM.
func (p *Process) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.binary, p.Args()...)
	// stdin is set before the process starts
	cmd.Stdin = strings.NewReader(text + "\n")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, &Error{
				Type:    "timeout",
				Message: fmt.Sprintf("synthesis timed out after %v", p.cfg.Timeout),
				Cause:   err,
			}
		case ctx.Err() != nil:
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "piper process failed"
		}
		return nil, &Error{Type: "synthesis", Message: msg, Cause: err}
	}

	pcm := stdout.Bytes()
	if len(pcm)%2 != 0 {
		pcm = pcm[:len(pcm)-1]
	}
	return pcm, nil
}
