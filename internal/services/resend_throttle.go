package services

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ResendThrottle allows one code request per key every cooldown window.
type ResendThrottle struct {
	every   time.Duration
	mu      sync.Mutex
	entries map[string]*throttleEntry
	now     func() time.Time
}

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewResendThrottle creates a throttle. A zero cooldown disables it.
func NewResendThrottle(cooldown time.Duration) *ResendThrottle {
	return &ResendThrottle{
		every:   cooldown,
		entries: make(map[string]*throttleEntry),
		now:     time.Now,
	}
}

// Allow reports whether key may request another code now.
func (t *ResendThrottle) Allow(key string) bool {
	if t == nil || t.every <= 0 {
		return true
	}
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[key]
	if !ok {
		t.cleanupLocked(now)
		entry = &throttleEntry{limiter: rate.NewLimiter(rate.Every(t.every), 1)}
		t.entries[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// cleanupLocked drops keys whose bucket has refilled; forgetting them is
// equivalent to keeping a full bucket.
func (t *ResendThrottle) cleanupLocked(now time.Time) {
	for key, entry := range t.entries {
		if now.Sub(entry.lastSeen) > t.every {
			delete(t.entries, key)
		}
	}
}
