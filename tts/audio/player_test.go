package audio

import (
	"encoding/binary"
	"testing"
	"time"
)

func pcm(samples ...int16) []byte {
	b := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(s))
	}
	return b
}

func waitDone(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for playback to finish")
	}
}

// TestPlayerPlaysToEnd tests that done fires once the sink drains.
func TestPlayerPlaysToEnd(t *testing.T) {
	device := NewMockDevice()
	p := NewPlayer(device)

	done := make(chan struct{})
	if err := p.Play(pcm(1, 2, 3), func() { close(done) }); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	waitDone(t, done)

	if got := device.Played(); len(got) != 1 || len(got[0]) != 6 {
		t.Errorf("Played() = %v", got)
	}
	if !device.Sinks()[0].Closed() {
		t.Error("sink should be closed after playback")
	}
	if p.Playing() {
		t.Error("Playing() should be false after playback")
	}
}

// TestPlayerRejectsBadPCM tests input validation.
func TestPlayerRejectsBadPCM(t *testing.T) {
	p := NewPlayer(NewMockDevice())
	if err := p.Play(nil, nil); err == nil {
		t.Error("Play(nil) should fail")
	}
	if err := p.Play([]byte{1, 2, 3}, nil); err == nil {
		t.Error("Play() with a partial sample should fail")
	}
}

// TestPlayerPauseResume tests holding a track mid-utterance.
func TestPlayerPauseResume(t *testing.T) {
	device := NewMockDevice()
	device.HoldSinks(true)
	p := NewPlayer(device)

	done := make(chan struct{})
	if err := p.Play(pcm(1, 2), func() { close(done) }); err != nil {
		t.Fatal(err)
	}
	if err := p.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if err := p.Pause(); err != ErrNotPlaying {
		t.Errorf("second Pause() = %v, want ErrNotPlaying", err)
	}

	sink := device.Sinks()[0]
	sink.Release()
	time.Sleep(3 * pollInterval)
	select {
	case <-done:
		t.Fatal("paused track must not finish")
	default:
	}

	if err := p.Resume(); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	waitDone(t, done)
	if sink.Pauses() != 1 {
		t.Errorf("Pauses() = %d, want 1", sink.Pauses())
	}
}

// TestPlayerStop tests that stopped tracks never report completion.
func TestPlayerStop(t *testing.T) {
	device := NewMockDevice()
	device.HoldSinks(true)
	p := NewPlayer(device)

	called := make(chan struct{}, 1)
	if err := p.Play(pcm(1), func() { called <- struct{}{} }); err != nil {
		t.Fatal(err)
	}
	p.Stop()
	device.Sinks()[0].Release()
	time.Sleep(3 * pollInterval)

	select {
	case <-called:
		t.Error("done must not run after Stop")
	default:
	}
	if err := p.Resume(); err != ErrNotPlaying {
		t.Errorf("Resume() after Stop = %v, want ErrNotPlaying", err)
	}
	p.Stop()
}

// TestPlayerReplacesTrack tests that Play stops the previous track.
func TestPlayerReplacesTrack(t *testing.T) {
	device := NewMockDevice()
	device.HoldSinks(true)
	p := NewPlayer(device)

	first := make(chan struct{}, 1)
	_ = p.Play(pcm(1), func() { first <- struct{}{} })
	device.HoldSinks(false)

	second := make(chan struct{})
	_ = p.Play(pcm(2), func() { close(second) })
	waitDone(t, second)

	if !device.Sinks()[0].Closed() {
		t.Error("replaced sink should be closed")
	}
	select {
	case <-first:
		t.Error("replaced track must not report completion")
	default:
	}
}
