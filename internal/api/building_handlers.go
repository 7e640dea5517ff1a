package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/models"
)

// ========== Building handlers ==========

type buildingRequest struct {
	Name     string    `json:"name" validate:"required,max=100"`
	Address  string    `json:"address" validate:"required,max=200"`
	Type     string    `json:"type" validate:"required,oneof=residential industrial public"`
	RegionID uuid.UUID `json:"regionId" validate:"required"`
	TariffID uuid.UUID `json:"tariffId" validate:"required"`
	UserID   uuid.UUID `json:"userId" validate:"required"`
}

// HandleListBuildings lists buildings visible to the caller
func (s *RESTServer) HandleListBuildings(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	buildings, err := s.service.ListBuildings(r.Context(), actor)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"buildings": buildings,
		"total":     len(buildings),
	})
}

// HandleCreateBuilding creates a building
func (s *RESTServer) HandleCreateBuilding(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	var req buildingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	building := &models.Building{
		Name:     req.Name,
		Address:  req.Address,
		Type:     models.BuildingType(req.Type),
		RegionID: req.RegionID,
		TariffID: req.TariffID,
		UserID:   req.UserID,
	}

	if err := s.service.CreateBuilding(r.Context(), actor, building); err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, building)
}

// HandleGetBuilding gets a building
func (s *RESTServer) HandleGetBuilding(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid building id")
		return
	}

	building, err := s.service.GetBuilding(r.Context(), actor, id)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, building)
}

// HandleUpdateBuilding updates a building
func (s *RESTServer) HandleUpdateBuilding(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid building id")
		return
	}

	var req buildingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	building := &models.Building{
		ID:       id,
		Name:     req.Name,
		Address:  req.Address,
		Type:     models.BuildingType(req.Type),
		RegionID: req.RegionID,
		TariffID: req.TariffID,
		UserID:   req.UserID,
	}

	if err := s.service.UpdateBuilding(r.Context(), actor, building); err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, building)
}

// HandleDeleteBuilding deletes a building with its meters and records
func (s *RESTServer) HandleDeleteBuilding(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid building id")
		return
	}

	if err := s.service.DeleteBuilding(r.Context(), actor, id); err != nil {
		s.respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
