package server

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/GavinBoller/WatchlistVercel-sub001/internal/session"
)

// loginRoute is where unauthenticated browser navigations are sent.
const loginRoute = "/login"

// RequireSession gates a route group behind a valid session. Every request
// runs exactly one session lookup; a missing cookie, a store failure, a
// malformed payload and an expired session are all treated identically as
// unauthenticated, never as an indeterminate state or a server error.
// API clients get a 401; browser navigations are redirected to the login
// route. On success the user identity and role are injected into the
// request context.
func RequireSession(sessionMgr session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie("session_id")
		if err != nil {
			abortUnauthenticated(c, "no session cookie")
			return
		}

		sess, err := sessionMgr.Get(c.Request.Context(), sessionID)
		if err != nil {
			slog.Warn("Invalid session",
				"session_id", sessionID,
				"error", err.Error(),
				"request_id", c.GetString("request_id"),
			)
			abortUnauthenticated(c, "invalid session")
			return
		}

		// Expiry is checked by Get; guard against a stale payload anyway.
		if time.Now().After(sess.ExpiresAt) {
			abortUnauthenticated(c, "session expired")
			return
		}

		c.Set("user_id", sess.UserID)
		c.Set("username", sess.Username)
		c.Set("role", sess.Role)

		c.Next()
	}
}

// RequireAdmin ensures the session role is admin. Must run after
// RequireSession.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "admin access required",
			})
			return
		}
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context, reason string) {
	if wantsHTML(c) {
		c.Redirect(http.StatusFound, loginRoute)
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": "unauthorized: " + reason,
	})
}

// wantsHTML reports whether the request is a browser navigation rather than
// an API call.
func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}

// RequestIDMiddleware tags every request with a unique ID for log correlation.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// LoggingMiddleware logs every request with structured attributes, at a level
// matching the response status.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", float64(time.Since(start).Milliseconds()),
			"client_ip", c.ClientIP(),
			"response_size", c.Writer.Size(),
		}
		if query := c.Request.URL.RawQuery; query != "" {
			attrs = append(attrs, "query", query)
		}
		if userID, exists := c.Get("user_id"); exists {
			attrs = append(attrs, "user_id", userID)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			slog.Error("Request failed - server error", attrs...)
		case status >= 400:
			slog.Warn("Request failed - client error", attrs...)
		default:
			slog.Info("Request completed", attrs...)
		}
	}
}

// RateLimitByIP throttles a route per client IP. Used on the credential
// endpoints to slow brute-force attempts.
func RateLimitByIP(limit rate.Limit, burst int) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		lim, ok := limiters[ip]
		if !ok {
			lim = rate.NewLimiter(limit, burst)
			limiters[ip] = lim
		}
		return lim
	}

	return func(c *gin.Context) {
		if !limiterFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many attempts, slow down",
			})
			return
		}
		c.Next()
	}
}
