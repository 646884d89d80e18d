package audio

import (
	"io"
	"sync"
)

// MockDevice is a Device that plays instantly. Each sink drains its reader
// on Play, so tests see utterances end on the next completion poll.
type MockDevice struct {
	mu     sync.Mutex
	sinks  []*MockSink
	played [][]byte
	hold   bool
}

// NewMockDevice creates a new mock device.
func NewMockDevice() *MockDevice {
	return &MockDevice{}
}

// NewSink implements Device.
func (d *MockDevice) NewSink(r io.Reader) Sink {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := &MockSink{device: d, r: r, hold: d.hold}
	d.sinks = append(d.sinks, s)
	return s
}

// HoldSinks makes new sinks wait for Release before draining.
func (d *MockDevice) HoldSinks(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hold = on
}

// Played returns the PCM of every sink that was drained, in order.
func (d *MockDevice) Played() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]byte(nil), d.played...)
}

// Sinks returns every sink created so far.
func (d *MockDevice) Sinks() []*MockSink {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*MockSink(nil), d.sinks...)
}

// MockSink records calls from the player.
type MockSink struct {
	device *MockDevice
	r      io.Reader

	mu      sync.Mutex
	playing bool
	closed  bool
	hold    bool
	pauses  int
}

// Hold keeps the sink from draining until Release, simulating a long
// utterance.
func (s *MockSink) Hold() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hold = true
}

// Release lets a held sink drain.
func (s *MockSink) Release() {
	s.mu.Lock()
	s.hold = false
	playing := s.playing
	s.mu.Unlock()
	if playing {
		s.drain()
	}
}

// Play implements Sink.
func (s *MockSink) Play() {
	s.mu.Lock()
	s.playing = true
	hold := s.hold
	s.mu.Unlock()
	if !hold {
		s.drain()
	}
}

func (s *MockSink) drain() {
	data, _ := io.ReadAll(s.r)
	if len(data) > 0 {
		s.device.mu.Lock()
		s.device.played = append(s.device.played, data)
		s.device.mu.Unlock()
	}
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
}

// Pause implements Sink.
func (s *MockSink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	s.pauses++
}

// IsPlaying implements Sink.
func (s *MockSink) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Close implements Sink.
func (s *MockSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether the player released the sink.
func (s *MockSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Pauses returns how many times Pause was called.
func (s *MockSink) Pauses() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pauses
}
