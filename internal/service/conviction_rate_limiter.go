package service

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ConvictionRateLimit define los topes de envio dentro de Window.
// PerUser <= 0 desactiva el limitador; PerSignal <= 0 deja sin tope propio a cada senal.
type ConvictionRateLimit struct {
	Window    time.Duration
	PerUser   int
	PerSignal int
}

func (l ConvictionRateLimit) Enabled() bool {
	return l.PerUser > 0
}

func (l ConvictionRateLimit) window() time.Duration {
	if l.Window <= 0 {
		return time.Minute
	}
	return l.Window
}

// ConvictionRateLimiter decide si un usuario puede enviar otra conviccion sobre una senal.
type ConvictionRateLimiter interface {
	Allow(ctx context.Context, userID, signalID string) bool
}

// memoryRateLimiter usa ventana deslizante y solo vale para una replica.
type memoryRateLimiter struct {
	mu        sync.Mutex
	clock     clockwork.Clock
	limit     ConvictionRateLimit
	window    time.Duration
	hits      map[string][]time.Time
	lastSweep time.Time
}

// NewMemoryRateLimiter devuelve nil si el limite esta desactivado.
func NewMemoryRateLimiter(limit ConvictionRateLimit, clock clockwork.Clock) ConvictionRateLimiter {
	if !limit.Enabled() {
		return nil
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &memoryRateLimiter{
		clock:     clock,
		limit:     limit,
		window:    limit.window(),
		hits:      make(map[string][]time.Time),
		lastSweep: clock.Now(),
	}
}

func (l *memoryRateLimiter) Allow(_ context.Context, userID, signalID string) bool {
	if userID == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	cutoff := now.Add(-l.window)
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(cutoff)
		l.lastSweep = now
	}

	userKey := "u:" + userID
	pairKey := "p:" + userID + ":" + signalID
	if len(l.recent(userKey, cutoff)) >= l.limit.PerUser {
		return false
	}
	if l.limit.PerSignal > 0 && len(l.recent(pairKey, cutoff)) >= l.limit.PerSignal {
		return false
	}
	l.hits[userKey] = append(l.hits[userKey], now)
	l.hits[pairKey] = append(l.hits[pairKey], now)
	return true
}

// recent poda las marcas vencidas de key y borra la entrada si queda vacia.
func (l *memoryRateLimiter) recent(key string, cutoff time.Time) []time.Time {
	entries := l.hits[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(l.hits, key)
		return nil
	}
	l.hits[key] = kept
	return kept
}

func (l *memoryRateLimiter) sweep(cutoff time.Time) {
	for key := range l.hits {
		l.recent(key, cutoff)
	}
}

func (l *memoryRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}
