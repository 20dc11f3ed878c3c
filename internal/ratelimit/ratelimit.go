package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultIdleTTL is how long an idle client's limiter is kept.
const DefaultIdleTTL = 10 * time.Minute

type client struct {
	limiter     *rate.Limiter
	windowStart time.Time
	lastSeen    time.Time
}

// Limiter allows up to Requests calls per fixed Window for each key. A
// key's window opens on its first request and the full budget returns only
// once the window has elapsed.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*client
	burst   int
	window  time.Duration
	idleTTL time.Duration
	now     func() time.Time
}

// New creates a Limiter allowing requests per window for every key.
func New(requests int, window time.Duration) *Limiter {
	return &Limiter{
		clients: make(map[string]*client),
		burst:   requests,
		window:  window,
		idleTTL: DefaultIdleTTL,
		now:     time.Now,
	}
}

// Allow reports whether a request for key may proceed. When it may not,
// retryAfter is how long until the key's window resets.
func (l *Limiter) Allow(key string) (ok bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, found := l.clients[key]
	if !found || !now.Before(c.windowStart.Add(l.window)) {
		// A zero limit never refills, so the bucket holds exactly the
		// window's budget.
		c = &client{limiter: rate.NewLimiter(0, l.burst), windowStart: now}
		l.clients[key] = c
	}
	c.lastSeen = now

	if c.limiter.AllowN(now, 1) {
		return true, 0
	}
	return false, c.windowStart.Add(l.window).Sub(now)
}

// Sweep drops limiters idle for longer than the TTL and returns how many
// were removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idleTTL)
	removed := 0
	for key, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Run sweeps idle limiters every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}
