package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"placement-storefront/models"
)

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Message  string
}

func CheckoutLimit(requests int) RateLimitConfig {
	if requests <= 0 {
		requests = 10
	}
	return RateLimitConfig{
		Requests: requests,
		Window:   time.Minute,
		Message:  "Too many checkout attempts. Please wait a minute.",
	}
}

// RateLimiter is a fixed-window counter in Redis keyed by browser profile.
type RateLimiter struct {
	client *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewRateLimiter(client *redis.Client, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{client: client, logger: logger, now: time.Now}
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return current
`)

// Limit wraps next with config. Redis errors let the request through.
func (rl *RateLimiter) Limit(name string, config RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rl.key(r, name, config)

			allowed, remaining, resetTime, err := rl.checkRateLimit(r.Context(), key, config)
			if err != nil {
				rl.logger.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.Requests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if !allowed {
				rl.logger.Info("rate limit exceeded", zap.String("key", key), zap.String("path", r.URL.Path))

				retryAfter := int64(resetTime.Sub(rl.now()).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(models.APIResponse{
					Status:  "error",
					Message: config.Message,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) key(r *http.Request, name string, config RateLimitConfig) string {
	subject := GetProfile(r.Context())
	if subject == "" {
		subject = "ip:" + clientIP(r)
	}
	window := rl.now().Truncate(config.Window).Unix()
	return fmt.Sprintf("rate_limit:%s:%s:%d", name, subject, window)
}

func (rl *RateLimiter) checkRateLimit(ctx context.Context, key string, config RateLimitConfig) (bool, int, time.Time, error) {
	resetTime := rl.now().Truncate(config.Window).Add(config.Window)

	count, err := fixedWindowScript.Run(ctx, rl.client, []string{key}, config.Window.Milliseconds()).Int()
	if err != nil {
		return false, 0, time.Time{}, err
	}

	remaining := config.Requests - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= config.Requests, remaining, resetTime, nil
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		ips := strings.Split(ip, ",")
		return strings.TrimSpace(ips[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// SecurityHeaders sets the standard hardening headers and disables caching on
// API responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}

		next.ServeHTTP(w, r)
	})
}
