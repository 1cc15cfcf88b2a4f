package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks that the store answers
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"storage": "ok"}
	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", "error", err)
			checks["storage"] = "unavailable"
			writeJSON(w, http.StatusServiceUnavailable, envelope{
				Message: "Service not ready",
				Data:    map[string]any{"status": "not_ready", "checks": checks},
			})
			return
		}
	}
	writeData(w, http.StatusOK, map[string]any{"status": "ready", "checks": checks})
}

// handleMetrics reports request, security, rate limit and cache counters
// in plain text.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	req := s.tracer.GetMetrics()
	sec := s.detector.GetMetrics()
	rl := s.limiter.GetMetrics()

	fmt.Fprintf(w, "fintrack_uptime_seconds %d\n", int64(time.Since(s.started).Seconds()))
	fmt.Fprintf(w, "fintrack_http_requests_total %d\n", req.TotalRequests)
	fmt.Fprintf(w, "fintrack_http_server_errors_total %d\n", req.ServerErrors)
	fmt.Fprintf(w, "fintrack_http_last_response_microseconds %d\n", req.AverageResponseTime)
	fmt.Fprintf(w, "fintrack_security_suspicious_requests_total %d\n", sec.SuspiciousRequests)
	fmt.Fprintf(w, "fintrack_security_invalid_ip_total %d\n", sec.InvalidIPAttempts)
	fmt.Fprintf(w, "fintrack_ratelimit_rejected_total %d\n", rl.TotalHits)
	fmt.Fprintf(w, "fintrack_ratelimit_clients %d\n", rl.ClientCount)
	if s.cacheStats != nil {
		cs := s.cacheStats()
		fmt.Fprintf(w, "fintrack_dashboard_cache_hits_total %d\n", cs.Hits)
		fmt.Fprintf(w, "fintrack_dashboard_cache_misses_total %d\n", cs.Misses)
		fmt.Fprintf(w, "fintrack_dashboard_cache_entries %d\n", cs.Size)
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, envelope{Message: "Not found"})
}
