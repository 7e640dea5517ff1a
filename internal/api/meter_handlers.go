package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/models"
)

// ========== Meter handlers ==========

type meterRequest struct {
	SerialNumber     string    `json:"serialNumber" validate:"required,max=100"`
	InstallationDate string    `json:"installationDate" validate:"required"`
	BuildingID       uuid.UUID `json:"buildingId" validate:"required"`
}

// HandleListMeters lists meters visible to the caller
func (s *RESTServer) HandleListMeters(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	meters, err := s.service.ListMeters(r.Context(), actor)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"meters": meters,
		"total":  len(meters),
	})
}

// HandleCreateMeter creates a meter
func (s *RESTServer) HandleCreateMeter(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req meterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	installed, err := parseDate(req.InstallationDate)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	meter := &models.Meter{
		SerialNumber:     req.SerialNumber,
		InstallationDate: installed,
		BuildingID:       req.BuildingID,
	}

	if err := s.service.CreateMeter(r.Context(), actor, meter); err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, meter)
}

// HandleGetMeter gets a meter
func (s *RESTServer) HandleGetMeter(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid meter id")
		return
	}

	meter, err := s.service.GetMeter(r.Context(), actor, id)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, meter)
}

// HandleUpdateMeter updates a meter
func (s *RESTServer) HandleUpdateMeter(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid meter id")
		return
	}

	var req meterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	installed, err := parseDate(req.InstallationDate)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	meter := &models.Meter{
		ID:               id,
		SerialNumber:     req.SerialNumber,
		InstallationDate: installed,
		BuildingID:       req.BuildingID,
	}

	if err := s.service.UpdateMeter(r.Context(), actor, meter); err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, meter)
}

// HandleDeleteMeter deletes a meter with its consumption records
func (s *RESTServer) HandleDeleteMeter(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid meter id")
		return
	}

	if err := s.service.DeleteMeter(r.Context(), actor, id); err != nil {
		s.respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
