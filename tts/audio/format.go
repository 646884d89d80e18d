// Package audio plays raw PCM produced by local speech engines.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// Audio format shared by the engines and the output device.
const (
	// SampleRate is the default sample rate in Hz.
	SampleRate = 22050
	// Channels is the number of audio channels (1 = mono).
	Channels = 1
	// BitDepth is the bit depth per sample.
	BitDepth = 16
	// BytesPerSample is the number of bytes per sample.
	BytesPerSample = BitDepth / 8
)

// ErrUnavailable is returned when no output device can be opened.
var ErrUnavailable = errors.New("audio output unavailable")

// Validate checks that pcm holds whole 16-bit samples.
func Validate(pcm []byte) error {
	if len(pcm) == 0 {
		return errors.New("empty audio data")
	}
	if len(pcm)%BytesPerSample != 0 {
		return fmt.Errorf("invalid PCM data length: %d bytes (not aligned to %d-byte samples)",
			len(pcm), BytesPerSample)
	}
	return nil
}

// Duration returns how long pcm plays at sampleRate.
func Duration(pcm []byte, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := len(pcm) / (BytesPerSample * Channels)
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

// ScaleVolume multiplies every sample by volume in place, clipping at the
// 16-bit limits.
func ScaleVolume(pcm []byte, volume float64) {
	if volume == 1.0 {
		return
	}
	for i := 0; i+1 < len(pcm); i += BytesPerSample {
		s := float64(int16(binary.LittleEndian.Uint16(pcm[i:])))
		s = math.Max(math.MinInt16, math.Min(math.MaxInt16, s*volume))
		binary.LittleEndian.PutUint16(pcm[i:], uint16(int16(s)))
	}
}
