package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/models"
	"github.com/energy-server/energy-server/internal/ownership"
	"github.com/energy-server/energy-server/internal/policy"
	"github.com/energy-server/energy-server/internal/storage"
)

// ========== Meter operations ==========

// ListMeters lists meters visible to the actor.
func (s *Service) ListMeters(ctx context.Context, actor models.Actor) ([]*models.Meter, error) {
	var (
		meters []*models.Meter
		err    error
	)
	switch policy.ListScope(actor.Role, policy.EntityMeter) {
	case policy.ScopeAll:
		meters, err = s.store.ListMeters(ctx)
	case policy.ScopeOwned:
		meters, err = s.store.ListMetersByOwner(ctx, actor.UserID)
	default:
		return nil, &DenyError{Reason: policy.ReasonForbidden}
	}
	if err != nil {
		return nil, err
	}
	if err := s.decorateMeters(ctx, meters); err != nil {
		return nil, err
	}
	return meters, nil
}

// GetMeter reads a single meter after resolving its owner through the
// building chain.
func (s *Service) GetMeter(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Meter, error) {
	owner, err := s.resolver.MeterOwner(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, policy.OpRead, policy.EntityMeter, &owner); err != nil {
		return nil, err
	}
	meter, err := s.store.GetMeter(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.decorateMeters(ctx, []*models.Meter{meter}); err != nil {
		return nil, err
	}
	return meter, nil
}

// CreateMeter creates a meter. Admin only.
func (s *Service) CreateMeter(ctx context.Context, actor models.Actor, meter *models.Meter) error {
	if err := s.authorize(actor, policy.OpCreate, policy.EntityMeter, nil); err != nil {
		return err
	}
	if err := s.validateMeter(ctx, meter); err != nil {
		return err
	}
	return s.store.CreateMeter(ctx, meter)
}

// UpdateMeter updates a meter. Admin only.
func (s *Service) UpdateMeter(ctx context.Context, actor models.Actor, meter *models.Meter) error {
	if err := s.authorize(actor, policy.OpUpdate, policy.EntityMeter, nil); err != nil {
		return err
	}
	if _, err := s.store.GetMeter(ctx, meter.ID); err != nil {
		return err
	}
	if err := s.validateMeter(ctx, meter); err != nil {
		return err
	}
	return s.store.UpdateMeter(ctx, meter)
}

// DeleteMeter deletes a meter with its consumption records in one
// transaction.
func (s *Service) DeleteMeter(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if err := s.authorize(actor, policy.OpDelete, policy.EntityMeter, nil); err != nil {
		return err
	}
	if _, err := s.store.GetMeter(ctx, id); err != nil {
		return err
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteMeterTree(ctx, tx, id); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Service) validateMeter(ctx context.Context, meter *models.Meter) error {
	if meter.SerialNumber == "" {
		return &ValidationError{Field: "serialNumber", Message: "must not be empty"}
	}
	if meter.InstallationDate.IsZero() {
		return &ValidationError{Field: "installationDate", Message: "must be set"}
	}
	if _, err := s.store.GetBuilding(ctx, meter.BuildingID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &ValidationError{Field: "buildingId", Message: "unknown building"}
		}
		return err
	}
	return nil
}

// decorateMeters fills the building name each meter is installed in.
func (s *Service) decorateMeters(ctx context.Context, meters []*models.Meter) error {
	if len(meters) == 0 {
		return nil
	}

	buildings, err := s.store.ListBuildings(ctx)
	if err != nil {
		return err
	}
	buildingByID := make(map[uuid.UUID]*models.Building, len(buildings))
	for _, b := range buildings {
		buildingByID[b.ID] = b
	}

	for _, meter := range meters {
		building, ok := buildingByID[meter.BuildingID]
		if !ok {
			return &ownership.IntegrityError{Entity: "meter", ID: meter.ID, Link: "building"}
		}
		meter.BuildingName = building.Name
	}
	return nil
}
