package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/adapter/http/models"
	"github.com/api-sage/settlement-hub/src/internal/logger"
	"github.com/api-sage/settlement-hub/src/internal/metrics"
	"github.com/api-sage/settlement-hub/src/internal/ratelimit"
)

type RateLimiter interface {
	CheckScope(ctx context.Context, clientID string, scope ratelimit.Scope) (ratelimit.ScopeResult, error)
	Now() time.Time
}

// Identifier resolves a verified caller identity for a request.
type Identifier interface {
	Identify(r *http.Request) (string, bool)
}

// RateLimit counts each request against its endpoint scope, if it has one,
// and against the global scope. An endpoint rejection takes precedence.
// Callers are keyed by their verified identity, else by client IP. Store
// failures let the request through.
func RateLimit(limiter RateLimiter, policy ratelimit.Policy, identity Identifier, skipInternal bool, collector metrics.Collector) func(http.Handler) http.Handler {
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipInternal && isInternal(clientIP(r)) {
				next.ServeHTTP(w, r)
				return
			}

			clientID := clientIdentity(r, identity)

			var endpointRejection *ratelimit.ScopeResult
			if scope, ok := policy.EndpointScope(r.Method, r.URL.Path); ok {
				checked, ok := check(r, limiter, collector, clientID, scope)
				if ok {
					setHeaders(w, "X-RateLimit-Endpoint-", checked.Result)
					if !checked.Result.Allowed {
						endpointRejection = &checked
					}
				}
			}

			checked, ok := check(r, limiter, collector, clientID, policy.Global)
			if ok {
				setHeaders(w, "X-RateLimit-", checked.Result)
			}

			if endpointRejection != nil {
				reject(w, r, limiter.Now(), *endpointRejection, "Endpoint rate limit exceeded")
				return
			}
			if ok && !checked.Result.Allowed {
				reject(w, r, limiter.Now(), checked, "Global rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func check(r *http.Request, limiter RateLimiter, collector metrics.Collector, clientID string, scope ratelimit.Scope) (ratelimit.ScopeResult, bool) {
	checked, err := limiter.CheckScope(r.Context(), clientID, scope)
	if err != nil {
		logger.Error("rate limit middleware store failed", err, logger.Fields{
			"scope":  scope.Name,
			"method": r.Method,
			"path":   r.URL.Path,
		})
		collector.RecordRateLimitStoreError()
		return ratelimit.ScopeResult{}, false
	}
	collector.RecordRateLimitDecision(scope.Name, checked.Result.Allowed)
	return checked, true
}

func setHeaders(w http.ResponseWriter, prefix string, result ratelimit.Result) {
	h := w.Header()
	h.Set(prefix+"Limit", strconv.FormatInt(result.Limit, 10))
	h.Set(prefix+"Remaining", strconv.FormatInt(result.Remaining, 10))
	h.Set(prefix+"Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func reject(w http.ResponseWriter, r *http.Request, now time.Time, checked ratelimit.ScopeResult, message string) {
	retryAfter := checked.Result.RetryAfter(now)
	logger.Warn("rate limit middleware request rejected", logger.Fields{
		"scope":      checked.Scope,
		"method":     r.Method,
		"path":       r.URL.Path,
		"retryAfter": retryAfter,
	})

	w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	writeJSON(w, http.StatusTooManyRequests, models.RateLimitExceededResponse{
		Error:             "Rate limit exceeded",
		Message:           message,
		Scope:             checked.Scope,
		RemainingRequests: checked.Result.Remaining,
		ResetTime:         checked.Result.ResetAt.Unix(),
		RetryAfter:        retryAfter,
	})
}

func clientIdentity(r *http.Request, identity Identifier) string {
	if identity != nil {
		if principal, ok := identity.Identify(r); ok {
			return principal
		}
	}
	return "ip:" + clientIP(r)
}

// clientIP honours forwarding headers only when the connecting peer is an
// internal proxy. The right-most forwarded address outside the private
// ranges is the one the proxy saw.
func clientIP(r *http.Request) string {
	peer := remoteHost(r)
	if !isInternal(peer) {
		return peer
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		hops := strings.Split(forwarded, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if net.ParseIP(hop) != nil && !isInternal(hop) {
				return hop
			}
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(realIP) != nil {
		return realIP
	}
	return peer
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isInternal(value string) bool {
	ip := net.ParseIP(value)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate()
}
