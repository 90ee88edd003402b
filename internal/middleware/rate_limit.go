package middleware

import (
	"sync"
	"time"

	"botpanel/backend/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long a client's bucket is kept after its last request.
// Buckets refill completely within a minute, so a dropped bucket is recreated
// in the same state.
const limiterIdleTTL = 3 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP with a token bucket per client.
// Buckets idle for limiterIdleTTL are evicted.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter allows perMinute requests per client, all of which may arrive
// at once. A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		limit:    rate.Inf,
		now:      time.Now,
	}
	if perMinute > 0 {
		rl.limit = rate.Every(time.Minute / time.Duration(perMinute))
		rl.burst = perMinute
	}
	rl.lastSweep = rl.now()
	return rl
}

func (rl *RateLimiter) getLimiter(identifier string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= limiterIdleTTL {
		rl.sweepLocked(now)
	}

	cl, exists := rl.limiters[identifier]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[identifier] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

func (rl *RateLimiter) sweepLocked(now time.Time) {
	for id, cl := range rl.limiters {
		if now.Sub(cl.lastSeen) >= limiterIdleTTL {
			delete(rl.limiters, id)
		}
	}
	rl.lastSweep = now
}

// Allow reports whether identifier may make another request now
func (rl *RateLimiter) Allow(identifier string) bool {
	return rl.getLimiter(identifier).Allow()
}

// Clients returns the number of tracked client buckets
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Limit returns a middleware that limits requests
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			util.AbortWithError(c, util.ErrRateLimit("Rate limit exceeded. Please try again later."))
			return
		}
		c.Next()
	}
}

// RefreshRateLimit limits manual refresh requests per IP
func RefreshRateLimit(perMinute int) gin.HandlerFunc {
	return NewRateLimiter(perMinute).Limit()
}
