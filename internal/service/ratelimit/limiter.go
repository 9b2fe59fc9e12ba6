package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter is a per-key token bucket. Each key starts full with Burst tokens and
// refills at RPS tokens per second.
type Limiter struct {
	mu       sync.Mutex
	m        map[string]*bucket
	rps      float64
	burst    float64
	now      func() time.Time
	idleTTL  time.Duration
	lastScan time.Time
}

// Option configures Limiter.
type Option func(*Limiter)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithIdleTTL sets how long an untouched bucket is kept before it is dropped.
func WithIdleTTL(d time.Duration) Option {
	return func(l *Limiter) { l.idleTTL = d }
}

// New creates a limiter allowing rps sustained requests with bursts of up to burst.
func New(rps float64, burst int, opts ...Option) *Limiter {
	if burst < 1 {
		burst = 1
	}
	l := &Limiter{
		m:       make(map[string]*bucket),
		rps:     rps,
		burst:   float64(burst),
		now:     time.Now,
		idleTTL: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastScan = l.now()
	return l
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(now)

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: l.burst, last: now}
		l.m[key] = b
	}
	// refill
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * l.rps
		if b.tokens > l.burst {
			b.tokens = l.burst
		}
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

func (l *Limiter) prune(now time.Time) {
	if l.idleTTL <= 0 || now.Sub(l.lastScan) < l.idleTTL {
		return
	}
	for k, b := range l.m {
		if now.Sub(b.last) >= l.idleTTL {
			delete(l.m, k)
		}
	}
	l.lastScan = now
}
