package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"evcharge-backend/internal/shared/response"
)

// visitor holds the rate limiter and the last time it was seen
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter là token bucket theo identity (user nếu đã login, IP nếu chưa)
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(requestsPerSecond),
		burst:    burst,
		idleTTL:  3 * time.Minute,
		now:      time.Now,
	}
}

func (l *RateLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, exists := l.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Cleanup removes idle visitors. Gọi định kỳ từ server.
func (l *RateLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	cutoff := l.now().Add(-l.idleTTL)
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

// RunCleanup chạy Cleanup mỗi interval cho tới khi stop bị đóng
func (l *RateLimiter) RunCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Cleanup()
		case <-stop:
			return
		}
	}
}

// Middleware trả 429 khi bucket của identity đã cạn. tier tách quota giữa các nhóm route.
func (l *RateLimiter) Middleware(tier string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := "ip:" + GetClientIP(c)
		if userID, ok := GetUserID(c); ok {
			identity = "user:" + userID.String()
		}

		if !l.get(identity + ":" + tier).Allow() {
			response.TooManyRequests(c, "Too many requests, please slow down")
			c.Abort()
			return
		}
		c.Next()
	}
}
