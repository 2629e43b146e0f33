// Package http provides the HTTP server, router, and shared middleware.
package http

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/allisson/go-pwdhash"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/fieldsrv/guardpost/internal/httputil"
)

// CustomLoggerMiddleware logs HTTP requests with structured logging.
func CustomLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info("http request",
			slog.String("request_id", requestid.Get(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote_addr", c.ClientIP()),
		)
	}
}

// AdminAuthMiddleware authenticates admin API requests via a Bearer token
// in the Authorization header, verified against an Argon2id hash. An empty
// hash disables authentication.
//
// Returns:
//   - 401 Unauthorized: Missing, malformed, or invalid token
//   - Continues: Token verifies against the configured hash
func AdminAuthMiddleware(tokenHash string, logger *slog.Logger) gin.HandlerFunc {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyModerate))
	if err != nil {
		// Only possible with an invalid policy.
		panic(err)
	}

	return func(c *gin.Context) {
		if tokenHash == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, logger, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			unauthorized(c, logger, "malformed authorization header")
			return
		}

		ok, err := hasher.Verify([]byte(parts[1]), tokenHash)
		if err != nil || !ok {
			unauthorized(c, logger, "invalid admin token")
			return
		}

		c.Next()
	}
}

func unauthorized(c *gin.Context, logger *slog.Logger, reason string) {
	logger.Warn("admin authentication failed",
		slog.String("reason", reason),
		slog.String("remote_addr", c.ClientIP()),
		slog.String("path", c.Request.URL.Path),
	)

	c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.ErrorResponse{
		Error:   "unauthorized",
		Message: "Authentication is required",
	})
}

// rateLimiterStore holds per-address rate limiters with lazy creation.
type rateLimiterStore struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

func (s *rateLimiterStore) limiter(addr string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, ok := s.limiters[addr]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(s.rps), s.burst)
		s.limiters[addr] = limiter
	}
	return limiter
}

// RateLimitMiddleware enforces per-source-address rate limiting on the
// admin API using a token bucket per address.
//
// Returns:
//   - 429 Too Many Requests: Rate limit exceeded
//   - Continues: Request allowed within rate limit
func RateLimitMiddleware(rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := &rateLimiterStore{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}

	return func(c *gin.Context) {
		addr := c.ClientIP()
		if !store.limiter(addr).Allow() {
			logger.Warn("rate limit exceeded",
				slog.String("remote_addr", addr),
				slog.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, httputil.ErrorResponse{
				Error:   "rate_limit_exceeded",
				Message: "Too many requests, slow down",
			})
			return
		}

		c.Next()
	}
}
