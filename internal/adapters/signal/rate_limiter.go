package signal

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/dkeye/Desk/internal/core"
)

// ConnRateLimiter keeps one token bucket per connection.
type ConnRateLimiter struct {
	mu       sync.Mutex
	limiters map[core.ConnectionID]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewConnRateLimiter returns a limiter allowing perSecond frames with the given burst.
// A non-positive perSecond disables limiting.
func NewConnRateLimiter(perSecond float64, burst int) *ConnRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &ConnRateLimiter{
		limiters: make(map[core.ConnectionID]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (rl *ConnRateLimiter) Allow(cid core.ConnectionID) bool {
	if rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	lim, ok := rl.limiters[cid]
	if !ok {
		lim = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[cid] = lim
	}
	rl.mu.Unlock()
	return lim.Allow()
}

// Forget drops the bucket of a closed connection.
func (rl *ConnRateLimiter) Forget(cid core.ConnectionID) {
	rl.mu.Lock()
	delete(rl.limiters, cid)
	rl.mu.Unlock()
}
