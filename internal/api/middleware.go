// Feedgarden - Personalized Offline-First Video Feed
// Copyright 2026 A. Aldahan
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aldahan/feedgarden

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"

	"github.com/aldahan/feedgarden/internal/config"
	"github.com/aldahan/feedgarden/internal/logging"
	"github.com/aldahan/feedgarden/internal/metrics"
)

// requestIDHeader is set on every response for request correlation.
const requestIDHeader = "X-Request-ID"

// requestID assigns a UUID to requests that arrive without one and echoes
// it back on the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// requestLogger logs each request through the global logger and records
// the latency histogram keyed by the matched route pattern.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		duration := time.Since(start)
		metrics.HTTPRequestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).
			Observe(duration.Seconds())

		logging.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", w.Header().Get(requestIDHeader)).
			Int("status", rec.status).
			Dur("duration", duration).
			Msg("Request handled")
	})
}

// corsHandler builds the CORS middleware from configured origins. Origins
// default to empty, requiring explicit configuration before any cross
// origin client can talk to the daemon.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", requestIDHeader},
		ExposedHeaders:   []string{"X-Cache", requestIDHeader},
		AllowCredentials: false,
		MaxAge:           86400,
	})
}

// rateLimiter builds the IP keyed rate limiter, or a no-op middleware when
// rate limiting is disabled in the config.
func rateLimiter(cfg *config.ServerConfig) func(http.Handler) http.Handler {
	if cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.LimitByIP(cfg.RateLimitReqs, cfg.RateLimitWindow)
}
