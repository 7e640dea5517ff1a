package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/models"
)

// ========== Tariff handlers ==========

type tariffRequest struct {
	Name       string  `json:"name" validate:"required,max=100"`
	RatePerKWh float64 `json:"ratePerKwh" validate:"required"`
	ValidFrom  string  `json:"validFrom" validate:"required"`
	ValidTo    string  `json:"validTo"`
}

// parse converts the wire representation into a tariff, decoding the
// calendar dates.
func (req *tariffRequest) parse() (*models.Tariff, error) {
	validFrom, err := parseDate(req.ValidFrom)
	if err != nil {
		return nil, err
	}
	tariff := &models.Tariff{
		Name:       req.Name,
		RatePerKWh: req.RatePerKWh,
		ValidFrom:  validFrom,
	}
	if req.ValidTo != "" {
		validTo, err := parseDate(req.ValidTo)
		if err != nil {
			return nil, err
		}
		tariff.ValidTo = &validTo
	}
	return tariff, nil
}

// HandleListTariffs lists tariffs
func (s *RESTServer) HandleListTariffs(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	tariffs, err := s.service.ListTariffs(r.Context(), actor)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"tariffs": tariffs,
		"total":   len(tariffs),
	})
}

// HandleCreateTariff creates a tariff
func (s *RESTServer) HandleCreateTariff(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req tariffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tariff, err := req.parse()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	if err := s.service.CreateTariff(r.Context(), actor, tariff); err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, tariff)
}

// HandleGetTariff gets a tariff
func (s *RESTServer) HandleGetTariff(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid tariff id")
		return
	}

	tariff, err := s.service.GetTariff(r.Context(), actor, id)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, tariff)
}

// HandleUpdateTariff updates a tariff
func (s *RESTServer) HandleUpdateTariff(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid tariff id")
		return
	}

	var req tariffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	parsed, err := req.parse()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	tariff, err := s.service.GetTariff(r.Context(), actor, id)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	tariff.Name = parsed.Name
	tariff.RatePerKWh = parsed.RatePerKWh
	tariff.ValidFrom = parsed.ValidFrom
	tariff.ValidTo = parsed.ValidTo

	if err := s.service.UpdateTariff(r.Context(), actor, tariff); err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, tariff)
}

// HandleDeleteTariff deletes a tariff
func (s *RESTServer) HandleDeleteTariff(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid tariff id")
		return
	}

	if err := s.service.DeleteTariff(r.Context(), actor, id); err != nil {
		s.respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
