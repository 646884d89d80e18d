package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter hands out one token bucket per client address.
type clientLimiter struct {
	every rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*clientEntry
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newClientLimiter allows perMinute requests per client. Zero disables
// limiting.
func newClientLimiter(perMinute int) *clientLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &clientLimiter{
		every:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   max(1, perMinute/10),
		clients: make(map[string]*clientEntry),
	}
}

func (l *clientLimiter) allow(r *http.Request) bool {
	if l == nil {
		return true
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.clients[host]
	if !ok {
		e = &clientEntry{limiter: rate.NewLimiter(l.every, l.burst)}
		l.clients[host] = e
	}
	e.lastSeen = time.Now()
	return e.limiter.Allow()
}

// prune forgets clients not seen since before cutoff.
func (l *clientLimiter) prune(cutoff time.Time) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for host, e := range l.clients {
		if e.lastSeen.Before(cutoff) {
			delete(l.clients, host)
		}
	}
}
