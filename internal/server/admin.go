// Package server exposes the engine's small admin HTTP surface: health,
// provider rate-limit state and manual sweep triggers. The Discord-facing
// presentation layer lives outside this repo.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Luciism/statalytics/internal/api"
	"github.com/Luciism/statalytics/internal/domain"
	"github.com/Luciism/statalytics/internal/middleware"
	"github.com/Luciism/statalytics/internal/repository"
	"github.com/Luciism/statalytics/internal/service"

	"github.com/rs/zerolog"
)

type AdminServer struct {
	sweeper   *service.SweepService
	rotations *repository.RotationRepository
	hypixel   *api.HypixelClient
	db        *sql.DB
	logger    zerolog.Logger
}

func NewAdminServer(sweeper *service.SweepService, rotations *repository.RotationRepository, hypixel *api.HypixelClient, db *sql.DB, logger zerolog.Logger) *AdminServer {
	return &AdminServer{sweeper: sweeper, rotations: rotations, hypixel: hypixel, db: db, logger: logger}
}

// Register wires the admin handlers onto mux.
func (s *AdminServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /ratelimit", s.handleRateLimit)
	mux.HandleFunc("GET /tracked/{period}", s.handleTracked)
	mux.HandleFunc("POST /sweep/{period}", s.handleSweep)
}

func (s *AdminServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *AdminServer) handleRateLimit(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.hypixel.GetRateLimitInfo())
}

func (s *AdminServer) handleTracked(w http.ResponseWriter, r *http.Request) {
	periodType := domain.PeriodType(r.PathValue("period"))
	if !periodType.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown period type"})
		return
	}

	count, err := s.rotations.CountTracked(r.Context(), periodType)
	if err != nil {
		s.logger.Error().Err(err).Str("period_type", string(periodType)).Msg("failed to count tracked players")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "count failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"period_type": periodType, "tracked": count})
}

// handleSweep triggers a sweep tick for one period type out of schedule.
// The sweep runs in the background; an overlapping request is rejected by
// the sweeper itself on its next tick.
func (s *AdminServer) handleSweep(w http.ResponseWriter, r *http.Request) {
	periodType := domain.PeriodType(r.PathValue("period"))
	if !periodType.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown period type"})
		return
	}

	// The sweep outlives the request; carry its id so the detached logs can
	// be tied back to the trigger.
	requestID := middleware.GetRequestID(r.Context())
	go func() {
		summary, err := s.sweeper.RunSweep(context.WithoutCancel(r.Context()), periodType, time.Now().UTC())
		if err != nil {
			s.logger.Error().Err(err).
				Str("request_id", requestID).
				Str("period_type", string(periodType)).
				Msg("manual sweep failed")
			return
		}
		s.logger.Info().
			Str("request_id", requestID).
			Str("period_type", string(periodType)).
			Int("archived", summary.Archived).
			Msg("manual sweep finished")
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sweep started"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
