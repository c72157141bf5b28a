package api

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"limitgate/internal/limiter"
	"limitgate/internal/models"

	"github.com/gorilla/mux"
)

// Rate-limit response headers. These exact names are the wire contract;
// clients already parse them.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

// Request headers the enforcement middleware reads. Identity resolution
// happens upstream (gateway, auth proxy); when no subject header is present
// the client IP serves as the fallback network origin.
const (
	HeaderSubject = "X-Client-ID"
	HeaderTier    = "X-Client-Tier"
)

// WriteDecisionHeaders renders a gate result into response headers. Pure
// formatting, no side effects beyond the header map.
//
// Degraded decisions carry no real counts, so the X-RateLimit-* trio is
// omitted rather than reporting numbers that were never measured. Retry-After
// is only meaningful on rejection and is added by the rejection path.
func WriteDecisionHeaders(h http.Header, result limiter.GateResult) {
	if result.Degraded {
		return
	}
	h.Set(HeaderRateLimitLimit, strconv.Itoa(result.Decision.Limit))
	h.Set(HeaderRateLimitRemaining, strconv.Itoa(result.Decision.Remaining))
	h.Set(HeaderRateLimitReset, strconv.Itoa(retryAfterSeconds(result.Decision.Reset)))
}

// retryAfterSeconds rounds a duration up to whole seconds. Retry-After is an
// integer header; rounding down would invite a guaranteed-rejected retry.
func retryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// RateLimit returns enforcement middleware: every request is admitted or
// rejected by the gate, and the decision is rendered onto the response.
// Paths in skip bypass the check entirely (health probes, and the remote
// check endpoint itself, which is its own rate-limiting surface).
//
// Rejections respond 429 with Retry-After. Degraded rejections look the same
// to the client; a store outage never surfaces as a 5xx.
func RateLimit(gate *limiter.Gate, handlers *Handlers, skip ...string) mux.MiddlewareFunc {
	skipped := make(map[string]bool, len(skip))
	for _, path := range skip {
		skipped[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipped[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			subject := r.Header.Get(HeaderSubject)
			if subject == "" {
				subject = getClientIP(r)
			}
			tier := r.Header.Get(HeaderTier)
			if tier == "" && handlers != nil {
				tier = handlers.defaultTier
			}

			start := time.Now()
			result := gate.Admit(r.Context(), subject, tier, r.URL.Path)
			if handlers != nil {
				handlers.recordDecision(r, result, time.Since(start))
			}

			WriteDecisionHeaders(w.Header(), result)

			if !result.Allowed() {
				retry := retryAfterSeconds(result.Decision.RetryAfter)
				if retry < 1 {
					retry = 1
				}
				w.Header().Set(HeaderRetryAfter, strconv.Itoa(retry))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				errorResp := models.NewErrorResponse("Rate limit exceeded", models.ErrorCodeRateLimited)
				json.NewEncoder(w).Encode(errorResp)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware handles panics
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("Panic recovered", "error", err, "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				errorResp := models.NewErrorResponse("Internal server error", models.ErrorCodeInternalError)
				json.NewEncoder(w).Encode(errorResp)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// getClientIP extracts the originating client address, honoring proxy headers.
func getClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First address in the chain is the original client.
		if idx := strings.Index(fwd, ","); idx >= 0 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
