package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps submission history in process memory. History is lost
// on restart.
type MemoryLimiter struct {
	policy Policy

	mu         sync.Mutex
	history    map[string][]time.Time
	calls      int
	sweepEvery int
}

// NewMemoryLimiter creates an in-memory limiter enforcing policy.
func NewMemoryLimiter(policy Policy) *MemoryLimiter {
	return &MemoryLimiter{
		policy:     policy,
		history:    make(map[string][]time.Time),
		sweepEvery: 1024,
	}
}

// Allow implements Limiter. It never returns an error.
func (l *MemoryLimiter) Allow(_ context.Context, key string, now time.Time) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%l.sweepEvery == 0 {
		l.sweep(now)
	}

	recent := l.prune(l.history[key], now)
	d := l.policy.decide(recent, now)
	if d.Allowed {
		recent = append(recent, now)
	}

	if len(recent) == 0 {
		delete(l.history, key)
	} else {
		l.history[key] = recent
	}
	return d, nil
}

// Len returns the number of keys with live history.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.history)
}

func (l *MemoryLimiter) prune(ts []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-l.policy.Window)
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}

// sweep drops keys whose whole history has left the window.
func (l *MemoryLimiter) sweep(now time.Time) {
	for key, ts := range l.history {
		if len(l.prune(ts, now)) == 0 {
			delete(l.history, key)
		}
	}
}
