package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/models"
)

// ========== Region handlers ==========

// HandleListRegions lists regions
func (s *RESTServer) HandleListRegions(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	regions, err := s.service.ListRegions(r.Context(), actor)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"regions": regions,
		"total":   len(regions),
	})
}

// HandleCreateRegion creates a region
func (s *RESTServer) HandleCreateRegion(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req struct {
		Name     string `json:"name" validate:"required,max=100"`
		Timezone string `json:"timezone" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	region := &models.Region{
		Name:     req.Name,
		Timezone: req.Timezone,
	}

	if err := s.service.CreateRegion(r.Context(), actor, region); err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, region)
}

// HandleGetRegion gets a region
func (s *RESTServer) HandleGetRegion(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid region id")
		return
	}

	region, err := s.service.GetRegion(r.Context(), actor, id)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, region)
}

// HandleUpdateRegion updates a region
func (s *RESTServer) HandleUpdateRegion(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid region id")
		return
	}

	var req struct {
		Name     string `json:"name" validate:"required,max=100"`
		Timezone string `json:"timezone" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	region, err := s.service.GetRegion(r.Context(), actor, id)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	region.Name = req.Name
	region.Timezone = req.Timezone

	if err := s.service.UpdateRegion(r.Context(), actor, region); err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, region)
}

// HandleDeleteRegion deletes a region and everything beneath it
func (s *RESTServer) HandleDeleteRegion(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid region id")
		return
	}

	if err := s.service.DeleteRegion(r.Context(), actor, id); err != nil {
		s.respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
