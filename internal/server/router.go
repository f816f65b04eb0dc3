package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"walletscore/internal/config"
	"walletscore/internal/ratelimit"
)

// NewRouter wires the endpoints and middleware chain. Rate limiting covers
// only the wallet analysis tree; health, metrics and status endpoints stay
// unlimited so probes are never throttled.
func NewRouter(h *Handlers, limiter *ratelimit.Limiter, cfg *config.Config, log *logrus.Logger) http.Handler {
	mux := http.NewServeMux()

	limited := func(fn http.HandlerFunc) http.Handler {
		return rateLimitMiddleware(limiter, log, fn)
	}

	mux.Handle("GET /wallet/{address}", limited(h.handleWallet))
	mux.Handle("GET /wallet/{address}/transactions", limited(h.handleTransactions))
	mux.Handle("GET /wallet/{address}/balance", limited(h.handleBalance))
	mux.Handle("GET /wallet/{address}/defi", limited(h.handleDeFi))

	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /api-keys/status", h.handleAPIKeyStatus)
	mux.HandleFunc("POST /assistant/query", h.handleAssistantQuery)
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = loggingMiddleware(log, handler)
	handler = corsMiddleware(cfg.AllowedOrigins, handler)
	handler = requestIDMiddleware(handler)
	return handler
}
