package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// MsgTooManyAttempts is shown when a client exceeds the submission limit
const MsgTooManyAttempts = "Too many attempts. Please try again later."

// AttemptLimiter caps credential submissions per client in a fixed window
type AttemptLimiter struct {
	mu      sync.Mutex
	clients map[string]*attempts
	limit   int
	window  time.Duration
	now     func() time.Time
}

type attempts struct {
	left      int
	windowEnd time.Time
}

// NewAttemptLimiter allows limit attempts per window for each key.
// A non-positive limit disables limiting.
func NewAttemptLimiter(limit int, window time.Duration) *AttemptLimiter {
	return &AttemptLimiter{
		clients: make(map[string]*attempts),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Run evicts expired windows until ctx is cancelled
func (l *AttemptLimiter) Run(ctx context.Context) {
	if l.limit <= 0 || l.window <= 0 {
		return
	}
	ticker := time.NewTicker(l.window * 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evict()
		}
	}
}

func (l *AttemptLimiter) evict() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, a := range l.clients {
		if now.After(a.windowEnd) {
			delete(l.clients, key)
		}
	}
}

// Allow consumes one attempt for key
func (l *AttemptLimiter) Allow(key string) bool {
	if l.limit <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	a, ok := l.clients[key]
	if !ok || !now.Before(a.windowEnd) {
		l.clients[key] = &attempts{left: l.limit - 1, windowEnd: now.Add(l.window)}
		return true
	}
	if a.left > 0 {
		a.left--
		return true
	}
	return false
}

// RetryAfter returns how long key must wait for a fresh window
func (l *AttemptLimiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.clients[key]
	if !ok {
		return 0
	}
	if d := a.windowEnd.Sub(l.now()); d > 0 {
		return d
	}
	return 0
}

// LimitAttempts rejects a client's submissions to the route once the
// limiter runs out
func LimitAttempts(limiter *AttemptLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP() + " " + c.FullPath()
		if !limiter.Allow(key) {
			secs := int(limiter.RetryAfter(key).Round(time.Second) / time.Second)
			c.Header("Retry-After", strconv.Itoa(max(secs, 1)))
			c.String(http.StatusTooManyRequests, MsgTooManyAttempts)
			c.Abort()
			return
		}
		c.Next()
	}
}
