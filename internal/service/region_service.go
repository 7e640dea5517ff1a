package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/models"
	"github.com/energy-server/energy-server/internal/policy"
	"github.com/energy-server/energy-server/internal/storage"
)

// ========== Region operations ==========

// ListRegions lists regions for roles with list access. Tenants have no
// region listing; the rows they need are read through the building detail.
func (s *Service) ListRegions(ctx context.Context, actor models.Actor) ([]*models.Region, error) {
	switch policy.ListScope(actor.Role, policy.EntityRegion) {
	case policy.ScopeAll:
		return s.store.ListRegions(ctx)
	default:
		return nil, &DenyError{Reason: policy.ReasonForbidden}
	}
}

// GetRegion reads a single region.
func (s *Service) GetRegion(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Region, error) {
	if err := s.authorize(actor, policy.OpRead, policy.EntityRegion, nil); err != nil {
		return nil, err
	}
	return s.store.GetRegion(ctx, id)
}

// CreateRegion creates a region.
func (s *Service) CreateRegion(ctx context.Context, actor models.Actor, region *models.Region) error {
	if err := s.authorize(actor, policy.OpCreate, policy.EntityRegion, nil); err != nil {
		return err
	}
	if err := validateRegion(region); err != nil {
		return err
	}
	return s.store.CreateRegion(ctx, region)
}

// UpdateRegion updates a region.
func (s *Service) UpdateRegion(ctx context.Context, actor models.Actor, region *models.Region) error {
	if err := s.authorize(actor, policy.OpUpdate, policy.EntityRegion, nil); err != nil {
		return err
	}
	if err := validateRegion(region); err != nil {
		return err
	}
	return s.store.UpdateRegion(ctx, region)
}

// DeleteRegion deletes a region together with its buildings, their meters
// and their consumption records. The whole tree goes in one transaction, so
// a failure partway leaves the region intact.
func (s *Service) DeleteRegion(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if err := s.authorize(actor, policy.OpDelete, policy.EntityRegion, nil); err != nil {
		return err
	}
	if _, err := s.store.GetRegion(ctx, id); err != nil {
		return err
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	buildings, err := tx.ListBuildingsByRegion(ctx, id)
	if err != nil {
		return err
	}
	for _, building := range buildings {
		if err := deleteBuildingTree(ctx, tx, building.ID); err != nil {
			return err
		}
	}
	if err := tx.DeleteRegion(ctx, id); err != nil {
		return err
	}

	return tx.Commit()
}

// deleteBuildingTree removes a building with its meters and their records.
// Depth first so no foreign key is ever left dangling mid-transaction.
func deleteBuildingTree(ctx context.Context, tx storage.Store, buildingID uuid.UUID) error {
	meters, err := tx.ListMetersByBuilding(ctx, buildingID)
	if err != nil {
		return err
	}
	for _, meter := range meters {
		if err := deleteMeterTree(ctx, tx, meter.ID); err != nil {
			return err
		}
	}
	return tx.DeleteBuilding(ctx, buildingID)
}

// deleteMeterTree removes a meter and its consumption records.
func deleteMeterTree(ctx context.Context, tx storage.Store, meterID uuid.UUID) error {
	records, err := tx.ListConsumptionRecordsByMeter(ctx, meterID)
	if err != nil {
		return err
	}
	for _, record := range records {
		if err := tx.DeleteConsumptionRecord(ctx, record.ID); err != nil {
			return err
		}
	}
	return tx.DeleteMeter(ctx, meterID)
}

func validateRegion(region *models.Region) error {
	if region.Name == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if region.Timezone == "" {
		return &ValidationError{Field: "timezone", Message: "must not be empty"}
	}
	return nil
}
