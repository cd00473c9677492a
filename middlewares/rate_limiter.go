package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter is a sliding window limiter keyed by client IP.
type RateLimiter struct {
	rate     int
	interval time.Duration
	ips      map[string][]time.Time
	mu       sync.Mutex
}

func NewRateLimiter(rate int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		rate:     rate,
		interval: interval,
		ips:      make(map[string][]time.Time),
	}
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP(), time.Now()) {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.interval)
	valid := rl.ips[ip][:0]
	for _, t := range rl.ips[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.rate {
		rl.ips[ip] = valid
		return false
	}
	rl.ips[ip] = append(valid, now)
	return true
}

// StrictLimiter is a token bucket per client IP for login and registration.
type StrictLimiter struct {
	every    time.Duration
	burst    int
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

func NewStrictLimiter(every time.Duration, burst int) *StrictLimiter {
	return &StrictLimiter{
		every:    every,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (sl *StrictLimiter) limiter(ip string) *rate.Limiter {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	l, ok := sl.limiters[ip]
	if !ok {
		l = rate.NewLimiter(rate.Every(sl.every), sl.burst)
		sl.limiters[ip] = l
	}
	return l
}

func (sl *StrictLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sl.limiter(c.ClientIP()).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"status":  false,
				"message": "Too many attempts, please wait a moment",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
