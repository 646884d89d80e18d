//go:build !nocgo
// +build !nocgo

package audio

import (
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

var (
	otoOnce    sync.Once
	otoContext *oto.Context
	otoErr     error
)

type otoDevice struct {
	ctx *oto.Context
}

// OpenDevice returns the process-wide oto output device. oto allows a
// single context per process, so every call shares it.
func OpenDevice(sampleRate int) (Device, error) {
	otoOnce.Do(func() {
		options := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: Channels,
			Format:       oto.FormatSignedInt16LE,
		}

		switch runtime.GOOS {
		case "darwin":
			options.BufferSize = 100 * time.Millisecond
		default:
			options.BufferSize = 50 * time.Millisecond
		}

		ctx, ready, err := oto.NewContext(options)
		if err != nil {
			otoErr = fmt.Errorf("%w: %w", ErrUnavailable, err)
			return
		}
		<-ready
		otoContext = ctx
	})
	if otoErr != nil {
		return nil, otoErr
	}
	return &otoDevice{ctx: otoContext}, nil
}

func (d *otoDevice) NewSink(r io.Reader) Sink {
	return d.ctx.NewPlayer(r)
}
