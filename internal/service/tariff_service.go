package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/models"
	"github.com/energy-server/energy-server/internal/policy"
)

// ========== Tariff operations ==========

// ListTariffs lists tariffs for roles with list access.
func (s *Service) ListTariffs(ctx context.Context, actor models.Actor) ([]*models.Tariff, error) {
	switch policy.ListScope(actor.Role, policy.EntityTariff) {
	case policy.ScopeAll:
		return s.store.ListTariffs(ctx)
	default:
		return nil, &DenyError{Reason: policy.ReasonForbidden}
	}
}

// GetTariff reads a single tariff.
func (s *Service) GetTariff(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Tariff, error) {
	if err := s.authorize(actor, policy.OpRead, policy.EntityTariff, nil); err != nil {
		return nil, err
	}
	return s.store.GetTariff(ctx, id)
}

// CreateTariff creates a tariff.
func (s *Service) CreateTariff(ctx context.Context, actor models.Actor, tariff *models.Tariff) error {
	if err := s.authorize(actor, policy.OpCreate, policy.EntityTariff, nil); err != nil {
		return err
	}
	if err := validateTariff(tariff); err != nil {
		return err
	}
	return s.store.CreateTariff(ctx, tariff)
}

// UpdateTariff updates a tariff.
func (s *Service) UpdateTariff(ctx context.Context, actor models.Actor, tariff *models.Tariff) error {
	if err := s.authorize(actor, policy.OpUpdate, policy.EntityTariff, nil); err != nil {
		return err
	}
	if err := validateTariff(tariff); err != nil {
		return err
	}
	return s.store.UpdateTariff(ctx, tariff)
}

// DeleteTariff deletes a tariff. Unlike regions, tariffs do not cascade:
// a tariff still priced into buildings must be detached first.
func (s *Service) DeleteTariff(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if err := s.authorize(actor, policy.OpDelete, policy.EntityTariff, nil); err != nil {
		return err
	}
	buildings, err := s.store.ListBuildings(ctx)
	if err != nil {
		return err
	}
	for _, building := range buildings {
		if building.TariffID == id {
			return &ConflictError{Message: "tariff is assigned to buildings"}
		}
	}
	return s.store.DeleteTariff(ctx, id)
}

func validateTariff(tariff *models.Tariff) error {
	if tariff.Name == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if tariff.RatePerKWh <= 0 {
		return &ValidationError{Field: "ratePerKwh", Message: "must be positive"}
	}
	if tariff.ValidTo != nil && tariff.ValidTo.Before(tariff.ValidFrom) {
		return &ValidationError{Field: "validTo", Message: "must not precede validFrom"}
	}
	return nil
}
