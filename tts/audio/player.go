package audio

import (
	"bytes"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// pollInterval is how often a playing sink is checked for completion.
const pollInterval = 20 * time.Millisecond

// ErrNotPlaying is returned by Pause and Resume when there is nothing to
// pause or resume.
var ErrNotPlaying = errors.New("not playing")

// trackingReader counts the bytes handed to the device.
type trackingReader struct {
	r   *bytes.Reader
	mu  sync.Mutex
	pos atomic.Int64
}

func (t *trackingReader) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, err := t.r.Read(p)
	t.pos.Add(int64(n))
	return n, err
}

func (t *trackingReader) drained() bool {
	return t.pos.Load() >= t.r.Size()
}

// track is one utterance being played.
type track struct {
	sink   Sink
	reader *trackingReader
	done   func()
	paused bool
	stop   chan struct{}
}

// Player plays one PCM buffer at a time and reports when it ends.
type Player struct {
	device Device
	logger *log.Logger

	mu      sync.Mutex
	current *track
}

// NewPlayer creates a player that writes to device.
func NewPlayer(device Device) *Player {
	return &Player{
		device: device,
		logger: log.WithPrefix("audio"),
	}
}

// Play stops whatever is playing and starts pcm. done is called once pcm
// has played to the end; it is not called when playback is stopped.
func (p *Player) Play(pcm []byte, done func()) error {
	if err := Validate(pcm); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	t := &track{
		reader: &trackingReader{r: bytes.NewReader(pcm)},
		done:   done,
		stop:   make(chan struct{}),
	}
	t.sink = p.device.NewSink(t.reader)
	t.sink.Play()
	p.current = t

	go p.monitor(t)
	return nil
}

// monitor waits for t to drain, then releases it and fires its callback.
func (p *Player) monitor(t *track) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
		}

		p.mu.Lock()
		if p.current != t {
			p.mu.Unlock()
			return
		}
		if t.paused || t.sink.IsPlaying() || !t.reader.drained() {
			p.mu.Unlock()
			continue
		}
		p.current = nil
		if err := t.sink.Close(); err != nil {
			p.logger.Debug("Closing sink", "err", err)
		}
		p.mu.Unlock()

		if t.done != nil {
			t.done()
		}
		return
	}
}

// Pause holds the current track at its position.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.current
	if t == nil || t.paused {
		return ErrNotPlaying
	}
	t.sink.Pause()
	t.paused = true
	return nil
}

// Resume continues a paused track.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.current
	if t == nil || !t.paused {
		return ErrNotPlaying
	}
	t.paused = false
	t.sink.Play()
	return nil
}

// Stop discards the current track without calling its callback.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	t := p.current
	if t == nil {
		return
	}
	p.current = nil
	close(t.stop)
	t.sink.Pause()
	if err := t.sink.Close(); err != nil {
		p.logger.Debug("Closing sink", "err", err)
	}
}

// Playing reports whether a track is loaded and not paused.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil && !p.current.paused
}
