package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	h "campusevents/internal/delivery/http/helpers"
)

// RateLimiterConfig holds the per-client limit for credential endpoints.
type RateLimiterConfig struct {
	PerMinute       int
	CleanupInterval time.Duration
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter throttles sign-in and registration attempts per browser client.
type RateLimiter struct {
	perMinute int
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	logger    *slog.Logger

	mu       sync.Mutex
	limiters map[string]*clientLimiter

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a RateLimiter and starts removing idle entries in the background.
func NewRateLimiter(config RateLimiterConfig, logger *slog.Logger) *RateLimiter {
	if config.PerMinute <= 0 {
		config.PerMinute = 10
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	rl := &RateLimiter{
		perMinute: config.PerMinute,
		limit:     rate.Limit(float64(config.PerMinute) / 60.0),
		burst:     config.PerMinute,
		ttl:       2 * config.CleanupInterval,
		logger:    logger,
		limiters:  make(map[string]*clientLimiter),
		stopCh:    make(chan struct{}),
	}

	go rl.cleanupLoop(config.CleanupInterval)

	return rl
}

// Stop ends the background cleanup.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Limit wraps next with the per-client limit. It must run after ClientCookie.
func (rl *RateLimiter) Limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := ClientIDFromContext(r.Context())
		if !ok {
			h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing client id")
			return
		}
		if !rl.get(clientID, time.Now()).Allow() {
			// Seconds until one attempt is refilled.
			retryAfter := max((60+rl.perMinute-1)/rl.perMinute, 1)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			h.WriteJSONError(w, http.StatusTooManyRequests, h.ErrCodeRateLimited, "Too many attempts. Please wait and try again.")
			rl.logger.WarnContext(r.Context(), "rate limit exceeded", "client_id", clientID, "path", r.URL.Path)
			return
		}
		next(w, r)
	}
}

// Len returns the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) get(clientID string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cl, ok := rl.limiters[clientID]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[clientID] = cl
	}
	cl.lastAccess = now
	return cl.limiter
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for id, cl := range rl.limiters {
		if now.Sub(cl.lastAccess) > rl.ttl {
			delete(rl.limiters, id)
		}
	}
}
