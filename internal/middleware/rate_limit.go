package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"infinite-experiment/poolroster/internal/common"
	"infinite-experiment/poolroster/internal/constants"
)

// limiterIdleTTL is how long an unused bucket is kept. A client returning
// after that starts with a full bucket.
const limiterIdleTTL = 10 * time.Minute

// RateLimiter hands out one token bucket per client IP. Headers are never
// part of the key: they are client-controlled.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *cache.Cache
	limit    rate.Limit
	burst    int
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: cache.New(limiterIdleTTL, limiterIdleTTL),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *RateLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
	}
	// re-set to push the idle deadline forward
	l.limiters.Set(key, limiter, cache.DefaultExpiration)
	return limiter.(*rate.Limiter)
}

// Len reports how many client buckets are currently held.
func (l *RateLimiter) Len() int {
	return l.limiters.ItemCount()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.get(clientIP(r)).Allow() {
			common.RespondError(w, time.Now(), nil, constants.ErrCodeRateLimited, http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
