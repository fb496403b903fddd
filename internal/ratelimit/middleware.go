package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/drinkpos/internal/common"
)

// Allower reports whether an event for key fits within max events per window.
type Allower interface {
	Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error)
}

// Config describes how to derive a rate limit key and thresholds.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// Handler enforces rate limits before delegating to the next handler. Limiter errors fail
// open.
type Handler struct {
	Limiter Allower
	Config  Config
	OnError func(error)
	Now     func() time.Time
}

// ByClientIP keys requests by caller address under scope.
func ByClientIP(scope string) func(*http.Request) string {
	return func(r *http.Request) string {
		return scope + ":" + common.ClientIP(r)
	}
}

// ByRouteParam keys requests by caller address and a chi URL parameter, so a limit applies
// per resource per client.
func ByRouteParam(scope, param string) func(*http.Request) string {
	return func(r *http.Request) string {
		parts := []string{scope, common.ClientIP(r)}
		if v := chi.URLParam(r, param); v != "" {
			parts = append(parts, v)
		}
		return strings.Join(parts, ":")
	}
}

// Middleware implements the http.Handler middleware interface.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Config.Key == nil || h.Limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		allowed, remaining, resetAt, err := h.Limiter.Allow(r.Context(), h.Config.Key(r), h.Config.Window, h.Config.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(max(h.Config.Max, 0)))
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			now := time.Now()
			if h.Now != nil {
				now = h.Now()
			}
			retryAfter := max(int(resetAt.Sub(now).Seconds()), 0)
			headers.Set("Retry-After", strconv.Itoa(retryAfter))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", map[string]any{"retryAfterSeconds": retryAfter})
			return
		}
		next.ServeHTTP(w, r)
	})
}
