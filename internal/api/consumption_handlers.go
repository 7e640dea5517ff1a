package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/models"
)

// ========== Consumption record handlers ==========

type consumptionRequest struct {
	MeterID        uuid.UUID `json:"meterId" validate:"required"`
	PeriodStart    string    `json:"periodStart" validate:"required"`
	PeriodEnd      string    `json:"periodEnd" validate:"required"`
	ConsumptionKWh float64   `json:"consumptionKwh" validate:"min=0"`
}

func (req *consumptionRequest) parse() (*models.ConsumptionRecord, error) {
	start, err := parseDate(req.PeriodStart)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.PeriodEnd)
	if err != nil {
		return nil, err
	}
	return &models.ConsumptionRecord{
		MeterID:        req.MeterID,
		PeriodStart:    start,
		PeriodEnd:      end,
		ConsumptionKWh: req.ConsumptionKWh,
	}, nil
}

// HandleListConsumption lists consumption records visible to the caller
func (s *RESTServer) HandleListConsumption(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	records, err := s.service.ListConsumptionRecords(r.Context(), actor)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"total":   len(records),
	})
}

// HandleCreateConsumption creates a consumption record
func (s *RESTServer) HandleCreateConsumption(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req consumptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := req.parse()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	if err := s.service.CreateConsumptionRecord(r.Context(), actor, record); err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, record)
}

// HandleGetConsumption gets a consumption record with its estimated cost
func (s *RESTServer) HandleGetConsumption(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	record, err := s.service.GetConsumptionRecord(r.Context(), actor, id)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, record)
}

// HandleUpdateConsumption updates a consumption record
func (s *RESTServer) HandleUpdateConsumption(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	var req consumptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := req.parse()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	record.ID = id

	if err := s.service.UpdateConsumptionRecord(r.Context(), actor, record); err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, record)
}

// HandleDeleteConsumption deletes a consumption record
func (s *RESTServer) HandleDeleteConsumption(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	if err := s.service.DeleteConsumptionRecord(r.Context(), actor, id); err != nil {
		s.respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
