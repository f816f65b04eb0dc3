package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"walletscore/internal/ratelimit"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestID returns the request's correlation ID, or "" outside the
// middleware chain.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestIDMiddleware tags every request with a correlation ID, honoring an
// inbound X-Request-ID so callers can trace across services.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = newRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// responseRecorder captures the status code for logging
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rr *responseRecorder) WriteHeader(code int) {
	rr.statusCode = code
	rr.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs one line per request with timing and status.
func loggingMiddleware(log *logrus.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(recorder, r)

		log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     recorder.statusCode,
			"duration":   time.Since(start).String(),
			"request_id": RequestID(r.Context()),
		}).Info("Request handled")
	})
}

// corsMiddleware allows the configured origins; an empty list allows any.
func corsMiddleware(allowedOrigins []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := "*"
		if len(allowedOrigins) > 0 {
			origin = ""
			reqOrigin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if allowed == reqOrigin {
					origin = reqOrigin
					break
				}
			}
		}
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware admits or rejects requests per client. Counters are
// incremented only after an admitted request completes, so rejected
// requests never consume quota.
func rateLimitMiddleware(limiter *ratelimit.Limiter, log *logrus.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientHash := ratelimit.ClientHash(r)

		info, err := limiter.Check(r.Context(), clientHash)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.MinuteLimit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.MinuteRemaining()))

		if err != nil {
			var limitErr *ratelimit.LimitError
			if errors.As(err, &limitErr) {
				w.Header().Set("Retry-After", strconv.Itoa(limitErr.RetryAfter))
				respondError(w, r, http.StatusTooManyRequests, limitErr.Error())
				return
			}
			log.WithError(err).Warn("Rate limiter check failed, admitting request")
		}

		next.ServeHTTP(w, r)
		limiter.Increment(r.Context(), clientHash)
	})
}
