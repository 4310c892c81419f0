package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Liveness probe (no auth required)
	r.Get("/healthz", s.handleHealthz)

	// WebSocket handshake (auth via query parameters, validated in handler)
	r.Get(s.wsCfg.Path, s.handleWebSocket)

	// Operator endpoints (auth via shared secret header)
	r.Group(func(r chi.Router) {
		r.Use(s.secretAuthMiddleware)
		r.Get("/gyms/{gymID}/events", s.handleListEvents)
	})

	return r
}

// handleHealthz returns the relay liveness status.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleListEvents returns recent audited hardware events for a gym,
// newest first.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeNotFound(w, "event history is not enabled")
		return
	}

	gymID := chi.URLParam(r, "gymID")
	if gymID == "" {
		writeBadRequest(w, "gym id is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := s.events.ListByGym(r.Context(), gymID, limit)
	if err != nil {
		s.logger.Error("event history query failed", "gym_id", gymID, "error", err)
		writeInternalError(w, "failed to query event history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"gym_id": gymID,
		"events": entries,
	})
}
