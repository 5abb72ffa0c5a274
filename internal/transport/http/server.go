package http

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// RateLimit задает token bucket для /api/feed.
type RateLimit struct {
	RPS   float64
	Burst int
}

// NewServer создает HTTP-обработчик с роутингом и middleware.
// Порядок middleware снаружи внутрь: CORS, request ID, логирование; /api/feed дополнительно ограничен по частоте.
func NewServer(log *slog.Logger, h *Handler, limit RateLimit) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(limit.RPS), limit.Burst)

	mux := http.NewServeMux()
	mux.Handle("GET /api/feed", rateLimitMiddleware(limiter)(http.HandlerFunc(h.getFeed)))
	mux.HandleFunc("GET /api/items", h.getItems)
	mux.HandleFunc("GET /api/health", h.healthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = loggingMiddleware(log)(handler)
	handler = requestIDMiddleware()(handler)
	handler = corsMiddleware()(handler)
	return handler
}
