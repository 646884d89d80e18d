package tts

import "sync"

// Loop runs posted functions one at a time on a dedicated goroutine. All
// queue and playback state is owned by it, so nothing it runs needs a lock.
type Loop struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []func()
	closed  bool
	stopped chan struct{}
}

// NewLoop starts a loop.
func NewLoop() *Loop {
	l := &Loop{stopped: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.stopped)
	for {
		l.mu.Lock()
		for len(l.pending) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.pending) == 0 {
			l.mu.Unlock()
			return
		}
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()

		for _, f := range batch {
			f()
		}
	}
}

// Post schedules f and returns immediately. It is safe to call from any
// goroutine, including the loop itself. It reports false once the loop has
// been closed.
func (l *Loop) Post(f func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.pending = append(l.pending, f)
	l.cond.Signal()
	return true
}

// Do runs f on the loop and waits for it. It must not be called from a
// function running on the loop.
func (l *Loop) Do(f func()) bool {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		f()
	}) {
		return false
	}
	<-done
	return true
}

// Close runs whatever is already pending, then stops the loop.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.cond.Signal()
	l.mu.Unlock()
	<-l.stopped
}
