package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/energy-server/energy-server/internal/service"
)

// ========== Reporting handlers ==========

// HandleReport returns the per-building consumption and cost report
func (s *RESTServer) HandleReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	report, err := s.service.BuildReport(r.Context(), actor)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, report)
}

// HandleReportExport returns the report as a CSV download
func (s *RESTServer) HandleReportExport(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	report, err := s.service.BuildReport(r.Context(), actor)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	filename := fmt.Sprintf("consumption-report-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	if err := service.WriteReportCSV(w, report); err != nil {
		// Headers are already sent; all we can do is note it.
		log.Error().Err(err).Msg("Failed to stream report CSV")
	}
}

// HandleStats returns row counts and consumption totals scoped to the caller
func (s *RESTServer) HandleStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	stats, err := s.service.BuildStats(r.Context(), actor)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, stats)
}
