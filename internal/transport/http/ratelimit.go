package http

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"
)

// rateLimiter caps appends per room. A nil limiter allows everything.
//
// A room's limiter refills completely within idleAfter, so a limiter unused for
// that long behaves exactly like a fresh one and is dropped on the next sweep.
type rateLimiter struct {
	limit     rate.Limit
	burst     int
	idleAfter time.Duration
	clock     clock.Clock

	mu        sync.Mutex
	rooms     map[string]*roomLimiter
	lastSweep time.Time
}

type roomLimiter struct {
	lim  *rate.Limiter
	last time.Time
}

func newRateLimiter(perMinute int, clk clock.Clock) *rateLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &rateLimiter{
		limit:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     perMinute,
		idleAfter: time.Minute,
		clock:     clk,
		rooms:     make(map[string]*roomLimiter),
	}
}

func (r *rateLimiter) allow(room string) bool {
	if r == nil {
		return true
	}
	now := r.clock.Now()

	r.mu.Lock()
	r.sweep(now)
	rl, ok := r.rooms[room]
	if !ok {
		rl = &roomLimiter{lim: rate.NewLimiter(r.limit, r.burst)}
		r.rooms[room] = rl
	}
	rl.last = now
	r.mu.Unlock()

	return rl.lim.AllowN(now, 1)
}

// sweep drops idle rooms at most once per idleAfter. Callers hold r.mu.
func (r *rateLimiter) sweep(now time.Time) {
	if now.Sub(r.lastSweep) < r.idleAfter {
		return
	}
	r.lastSweep = now
	for room, rl := range r.rooms {
		if now.Sub(rl.last) >= r.idleAfter {
			delete(r.rooms, room)
		}
	}
}

// tracked reports how many rooms currently hold a limiter.
func (r *rateLimiter) tracked() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}
