package sessions

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rmitchellscott/stippler/internal/logging"
)

// CookieName holds the signed session token
const CookieName = "stippler_session"

const contextKey = "session"

// CreationLimiter decides whether a client IP may start another session
type CreationLimiter interface {
	Allow(ip string) bool
}

// Middleware attaches the caller's session to the request. A request without
// a token for a live session starts one and gets a cookie, subject to
// creations (nil means unlimited) and the manager's session cap.
func Middleware(m *Manager, tokens *TokenIssuer, secure bool, creations CreationLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.Nil
		if raw, err := c.Cookie(CookieName); err == nil {
			if parsed, err := tokens.Parse(raw); err == nil {
				id = parsed
			} else {
				logging.DebugWithComponent(logging.ComponentSessions, "Ignoring session cookie", "error", err)
			}
		}

		if id != uuid.Nil {
			if session, ok := m.Get(id); ok {
				c.Set(contextKey, session)
				c.Next()
				return
			}
		}

		if creations != nil && !creations.Allow(c.ClientIP()) {
			logging.WarnWithComponent(logging.ComponentSessions, "Session creation rate limit exceeded", "ip", c.ClientIP())
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many new sessions, try again later"})
			c.Abort()
			return
		}

		session, created, err := m.GetOrCreate(id)
		if errors.Is(err, ErrTooManySessions) {
			logging.WarnWithComponent(logging.ComponentSessions, "Session limit reached", "active", m.Count())
			c.Header("Retry-After", "60")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Server is busy, try again later"})
			c.Abort()
			return
		}
		if err != nil {
			logging.ErrorWithComponent(logging.ComponentSessions, "Failed to start session", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
			c.Abort()
			return
		}

		if created {
			token, err := tokens.Issue(session.ID)
			if err != nil {
				logging.ErrorWithComponent(logging.ComponentSessions, "Failed to issue session token", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
				c.Abort()
				return
			}
			c.SetSameSite(http.SameSiteStrictMode)
			c.SetCookie(CookieName, token, int(tokens.TTL().Seconds()), "/", "", secure, true)
		}

		c.Set(contextKey, session)
		c.Next()
	}
}

// FromContext returns the session attached by Middleware
func FromContext(c *gin.Context) *Session {
	if s, exists := c.Get(contextKey); exists {
		return s.(*Session)
	}
	return nil
}
