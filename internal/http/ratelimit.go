package httpapi

import (
	"sync"

	"golang.org/x/time/rate"
)

// rateLimiter keeps one token bucket per client key.
type rateLimiter struct {
	mu    sync.RWMutex
	limit rate.Limit
	burst int
	bkts  map[string]*rate.Limiter // key: ip
}

// newRateLimiter returns a limiter allowing rps requests per second per key.
// A non-positive rps disables limiting.
func newRateLimiter(rps float64, burst int) *rateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &rateLimiter{limit: limit, burst: burst, bkts: make(map[string]*rate.Limiter)}
}

func (rl *rateLimiter) bucket(key string) *rate.Limiter {
	rl.mu.RLock()
	bkt, ok := rl.bkts[key]
	rl.mu.RUnlock()
	if ok {
		return bkt
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if bkt, ok := rl.bkts[key]; ok {
		return bkt
	}
	bkt = rate.NewLimiter(rl.limit, rl.burst)
	rl.bkts[key] = bkt
	return bkt
}

func (rl *rateLimiter) Allow(key string) bool {
	return rl.bucket(key).Allow()
}
