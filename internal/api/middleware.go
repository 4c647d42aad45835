package api

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/metrics"
)

// RequestLogger logs each request and records request metrics.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		metrics.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route, c.Request.Method).Observe(elapsed.Seconds())

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"route":      route,
			"status":     status,
			"durationMs": elapsed.Milliseconds(),
			"clientIp":   c.ClientIP(),
		}
		if status >= http.StatusInternalServerError {
			log.Warn("HTTP request", fields)
			return
		}
		log.Debug("HTTP request", fields)
	}
}

// CORS allows the configured origins. An empty list or "*" allows any origin
// without credentials.
func CORS(allowed []string) gin.HandlerFunc {
	origins := make(map[string]bool, len(allowed))
	wildcard := len(allowed) == 0
	for _, o := range allowed {
		if o == "*" {
			wildcard = true
		}
		origins[strings.TrimSuffix(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		h := c.Writer.Header()
		switch {
		case strings.HasPrefix(c.Request.URL.Path, "/webhook"):
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && origins[origin]:
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		case wildcard:
			h.Set("Access-Control-Allow-Origin", "*")
		}
		h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Idempotency-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*visitor
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const visitorIdle = 10 * time.Minute

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = int(rps) + 1
	}
	return &RateLimiter{
		limit:    rate.Limit(rps),
		burst:    burst,
		limiters: make(map[string]*visitor),
		now:      time.Now,
	}
}

// Allow reports whether key may make a request now.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.limiters[key]
	if !ok {
		l.evict(now)
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *RateLimiter) evict(now time.Time) {
	for k, v := range l.limiters {
		if now.Sub(v.lastSeen) > visitorIdle {
			delete(l.limiters, k)
		}
	}
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.limit <= 0 {
			c.Next()
			return
		}
		if !l.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": errorBody{
				Code:    errors.ErrCodeRateLimited,
				Message: "Too many requests, slow down",
			}})
			return
		}
		c.Next()
	}
}

// RequireAuth resolves the bearer token to a live session.
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.Request)
		if token == "" {
			status := errors.HTTPStatus(errors.ErrCodeAuthenticationFailed)
			c.AbortWithStatusJSON(status, gin.H{"error": errorBody{
				Code:    errors.ErrCodeAuthenticationFailed,
				Message: "Missing or invalid token",
			}})
			return
		}
		session, _, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			stdErr := errors.Normalize(err)
			c.AbortWithStatusJSON(errors.HTTPStatus(stdErr.Code), gin.H{"error": errorBody{
				Code:    stdErr.Code,
				Message: stdErr.Message,
			}})
			return
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

// bearerToken reads the Authorization header, or the token query parameter
// for websocket upgrades where browsers cannot set headers.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("token")
	}
	return ""
}
