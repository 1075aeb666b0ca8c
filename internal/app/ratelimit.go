package app

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RateLimiter is a per-user sliding window.
type RateLimiter struct {
	mu       sync.Mutex
	history  map[uuid.UUID][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		history:  make(map[uuid.UUID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *RateLimiter) Allow(uid uuid.UUID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	fresh := rl.fresh(rl.history[uid], now)
	if len(fresh) >= rl.limit {
		rl.history[uid] = fresh
		return false
	}
	rl.history[uid] = append(fresh, now)
	return true
}

// Prune forgets users with no attempts inside the window.
func (rl *RateLimiter) Prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for uid, attempts := range rl.history {
		if fresh := rl.fresh(attempts, now); len(fresh) == 0 {
			delete(rl.history, uid)
		} else {
			rl.history[uid] = fresh
		}
	}
}

func (rl *RateLimiter) fresh(attempts []time.Time, now time.Time) []time.Time {
	windowStart := now.Add(-rl.interval)
	out := make([]time.Time, 0, len(attempts)+1)
	for _, t := range attempts {
		if t.After(windowStart) {
			out = append(out, t)
		}
	}
	return out
}

func (rl *RateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.history)
}
