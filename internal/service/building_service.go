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

// ========== Building operations ==========

// ListBuildings lists buildings visible to the actor: everything for admin
// and accountant, owned rows only for tenants.
func (s *Service) ListBuildings(ctx context.Context, actor models.Actor) ([]*models.Building, error) {
	var (
		buildings []*models.Building
		err       error
	)
	switch policy.ListScope(actor.Role, policy.EntityBuilding) {
	case policy.ScopeAll:
		buildings, err = s.store.ListBuildings(ctx)
	case policy.ScopeOwned:
		buildings, err = s.store.ListBuildingsByOwner(ctx, actor.UserID)
	default:
		return nil, &DenyError{Reason: policy.ReasonForbidden}
	}
	if err != nil {
		return nil, err
	}
	if err := s.decorateBuildings(ctx, buildings); err != nil {
		return nil, err
	}
	return buildings, nil
}

// GetBuilding reads a single building. Ownership is resolved before the
// policy check so tenant visibility is decided on the actual owner.
func (s *Service) GetBuilding(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Building, error) {
	owner, err := s.resolver.BuildingOwner(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, policy.OpRead, policy.EntityBuilding, &owner); err != nil {
		return nil, err
	}
	building, err := s.store.GetBuilding(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.decorateBuildings(ctx, []*models.Building{building}); err != nil {
		return nil, err
	}
	return building, nil
}

// CreateBuilding creates a building. Admin only.
func (s *Service) CreateBuilding(ctx context.Context, actor models.Actor, building *models.Building) error {
	if err := s.authorize(actor, policy.OpCreate, policy.EntityBuilding, nil); err != nil {
		return err
	}
	if err := s.validateBuilding(ctx, building); err != nil {
		return err
	}
	return s.store.CreateBuilding(ctx, building)
}

// UpdateBuilding updates a building. Admin only.
func (s *Service) UpdateBuilding(ctx context.Context, actor models.Actor, building *models.Building) error {
	if err := s.authorize(actor, policy.OpUpdate, policy.EntityBuilding, nil); err != nil {
		return err
	}
	if _, err := s.store.GetBuilding(ctx, building.ID); err != nil {
		return err
	}
	if err := s.validateBuilding(ctx, building); err != nil {
		return err
	}
	return s.store.UpdateBuilding(ctx, building)
}

// DeleteBuilding deletes a building with its meters and records in one
// transaction.
func (s *Service) DeleteBuilding(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if err := s.authorize(actor, policy.OpDelete, policy.EntityBuilding, nil); err != nil {
		return err
	}
	if _, err := s.store.GetBuilding(ctx, id); err != nil {
		return err
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteBuildingTree(ctx, tx, id); err != nil {
		return err
	}

	return tx.Commit()
}

// validateBuilding checks field invariants and that every referenced row
// exists, so a broken reference surfaces as a field error instead of a bare
// constraint violation from the database.
func (s *Service) validateBuilding(ctx context.Context, building *models.Building) error {
	if building.Name == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if building.Address == "" {
		return &ValidationError{Field: "address", Message: "must not be empty"}
	}
	if !building.Type.Valid() {
		return &ValidationError{Field: "type", Message: "unknown building type"}
	}
	if _, err := s.store.GetRegion(ctx, building.RegionID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &ValidationError{Field: "regionId", Message: "unknown region"}
		}
		return err
	}
	if _, err := s.store.GetTariff(ctx, building.TariffID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &ValidationError{Field: "tariffId", Message: "unknown tariff"}
		}
		return err
	}
	if _, err := s.store.GetUser(ctx, building.UserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &ValidationError{Field: "userId", Message: "unknown user"}
		}
		return err
	}
	return nil
}

// decorateBuildings fills the display names joined from regions, tariffs
// and owners. A reference that cannot be resolved is a data integrity
// failure, not an empty label.
func (s *Service) decorateBuildings(ctx context.Context, buildings []*models.Building) error {
	if len(buildings) == 0 {
		return nil
	}

	regions, err := s.store.ListRegions(ctx)
	if err != nil {
		return err
	}
	regionByID := make(map[uuid.UUID]*models.Region, len(regions))
	for _, r := range regions {
		regionByID[r.ID] = r
	}

	tariffs, err := s.store.ListTariffs(ctx)
	if err != nil {
		return err
	}
	tariffByID := make(map[uuid.UUID]*models.Tariff, len(tariffs))
	for _, t := range tariffs {
		tariffByID[t.ID] = t
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return err
	}
	userByID := make(map[uuid.UUID]*models.User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}

	for _, building := range buildings {
		region, ok := regionByID[building.RegionID]
		if !ok {
			return &ownership.IntegrityError{Entity: "building", ID: building.ID, Link: "region"}
		}
		tariff, ok := tariffByID[building.TariffID]
		if !ok {
			return &ownership.IntegrityError{Entity: "building", ID: building.ID, Link: "tariff"}
		}
		user, ok := userByID[building.UserID]
		if !ok {
			return &ownership.IntegrityError{Entity: "building", ID: building.ID, Link: "user"}
		}
		building.RegionName = region.Name
		building.TariffName = tariff.Name
		building.OwnerLogin = user.Login
	}
	return nil
}
