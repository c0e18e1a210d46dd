package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rmitchellscott/stippler/internal/logging"
	"golang.org/x/time/rate"
)

// IPRateLimiter limits one kind of request per client IP
type IPRateLimiter struct {
	name      string
	perMinute int
	limit     rate.Limit
	burst     int

	mu      sync.Mutex
	clients map[string]*clientLimit
}

type clientLimit struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter allows perMinute requests per IP with an equal burst.
// name labels the limiter in logs. A non-positive perMinute disables limiting.
func NewIPRateLimiter(name string, perMinute int) *IPRateLimiter {
	l := &IPRateLimiter{
		name:      name,
		perMinute: perMinute,
		limit:     rate.Inf,
		burst:     1,
		clients:   make(map[string]*clientLimit),
	}
	if perMinute > 0 {
		l.limit = rate.Every(time.Minute / time.Duration(perMinute))
		l.burst = perMinute
	}
	return l
}

// RateLimit rejects requests from IPs over their allowance
func (l *IPRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			l.Reject(c)
			return
		}
		c.Next()
	}
}

// Reject aborts the request with 429
func (l *IPRateLimiter) Reject(c *gin.Context) {
	logging.WarnWithComponent(logging.ComponentAPI, "Rate limit exceeded", "limiter", l.name, "ip", c.ClientIP())
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":      "Rate limit exceeded",
		"rate_limit": l.perMinute,
		"window":     "1 minute",
	})
	c.Abort()
}

// Allow consumes one token for ip and reports whether it was available
func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cl, ok := l.clients[ip]
	if !ok {
		cl = &clientLimit{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter.Allow()
}

// Cleanup removes IPs not seen within maxIdle
func (l *IPRateLimiter) Cleanup(maxIdle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	for ip, cl := range l.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(l.clients, ip)
		}
	}
}

// CleanupRoutine runs Cleanup every interval until ctx is done
func (l *IPRateLimiter) CleanupRoutine(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup(interval)
		}
	}
}

func (l *IPRateLimiter) clientCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// RequestSizeLimit rejects bodies larger than maxBytes. Requests without a
// Content-Length are cut off while the body is read.
func RequestSizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBytes {
			logging.WarnWithComponent(logging.ComponentAPI, "Request too large",
				"size", c.Request.ContentLength, "limit", maxBytes, "ip", c.ClientIP())
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":     "Request payload too large",
				"max_size":  fmt.Sprintf("%dB", maxBytes),
				"your_size": fmt.Sprintf("%dB", c.Request.ContentLength),
			})
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
