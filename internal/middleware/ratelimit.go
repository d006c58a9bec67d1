package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/zhouzirui/medicare/backend/pkg/utils"
)

// RateLimiterOptions configures the rate limiter
type RateLimiterOptions struct {
	// Limit defines requests per second
	Limit rate.Limit
	// Burst defines maximum burst size allowed
	Burst int
	// ExpiryDuration defines how long to keep client state in memory
	ExpiryDuration time.Duration
	// KeyFunc extracts the limiting key from a request
	KeyFunc func(*http.Request) string
	// Now is the clock; tests replace it.
	Now func() time.Time
}

// DefaultRateLimiterOptions returns 5 requests per second with a burst of 10 per client IP.
func DefaultRateLimiterOptions() RateLimiterOptions {
	return RateLimiterOptions{
		Limit:          5,
		Burst:          10,
		ExpiryDuration: time.Hour,
		KeyFunc:        clientIP,
		Now:            time.Now,
	}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client.
type RateLimiter struct {
	mu        sync.Mutex
	options   RateLimiterOptions
	clients   map[string]*client
	lastSweep time.Time
	logger    *zap.Logger
}

// NewRateLimiter creates a new rate limiter. Zero option fields take the defaults.
func NewRateLimiter(logger *zap.Logger, options RateLimiterOptions) *RateLimiter {
	defaults := DefaultRateLimiterOptions()
	if options.Limit <= 0 {
		options.Limit = defaults.Limit
	}
	if options.Burst <= 0 {
		options.Burst = defaults.Burst
	}
	if options.ExpiryDuration <= 0 {
		options.ExpiryDuration = defaults.ExpiryDuration
	}
	if options.KeyFunc == nil {
		options.KeyFunc = defaults.KeyFunc
	}
	if options.Now == nil {
		options.Now = defaults.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RateLimiter{
		options:   options,
		clients:   make(map[string]*client),
		lastSweep: options.Now(),
		logger:    logger.With(zap.String("component", "ratelimit")),
	}
}

// Middleware rejects requests over the limit with 429.
func (r *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		key := r.options.KeyFunc(req)
		if !r.getLimiter(key).AllowN(r.options.Now(), 1) {
			r.logger.Warn("rate limit exceeded",
				zap.String("client", key),
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
			)
			w.Header().Set("Retry-After", "1")
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(r.options.Burst))
			utils.RespondError(w, http.StatusTooManyRequests, "too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, req)
	})
}

// getLimiter returns the limiter of key and sweeps idle clients once per expiry window.
func (r *RateLimiter) getLimiter(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.options.Now()
	if now.Sub(r.lastSweep) > r.options.ExpiryDuration {
		for k, v := range r.clients {
			if now.Sub(v.lastSeen) > r.options.ExpiryDuration {
				delete(r.clients, k)
			}
		}
		r.lastSweep = now
	}

	v, exists := r.clients[key]
	if !exists {
		v = &client{limiter: rate.NewLimiter(r.options.Limit, r.options.Burst)}
		r.clients[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// clientIP relies on chi's RealIP middleware having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
