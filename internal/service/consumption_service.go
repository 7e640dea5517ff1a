package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/billing"
	"github.com/energy-server/energy-server/internal/models"
	"github.com/energy-server/energy-server/internal/ownership"
	"github.com/energy-server/energy-server/internal/policy"
	"github.com/energy-server/energy-server/internal/storage"
)

// ========== Consumption record operations ==========

// ListConsumptionRecords lists records visible to the actor, priced against
// the owning building's tariff.
func (s *Service) ListConsumptionRecords(ctx context.Context, actor models.Actor) ([]*models.ConsumptionRecord, error) {
	var (
		records []*models.ConsumptionRecord
		err     error
	)
	switch policy.ListScope(actor.Role, policy.EntityConsumption) {
	case policy.ScopeAll:
		records, err = s.store.ListConsumptionRecords(ctx)
	case policy.ScopeOwned:
		records, err = s.store.ListConsumptionRecordsByOwner(ctx, actor.UserID)
	default:
		return nil, &DenyError{Reason: policy.ReasonForbidden}
	}
	if err != nil {
		return nil, err
	}
	if err := s.decorateRecords(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetConsumptionRecord reads a single record after resolving its owner
// through the meter and building chain.
func (s *Service) GetConsumptionRecord(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.ConsumptionRecord, error) {
	owner, err := s.resolver.RecordOwner(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, policy.OpRead, policy.EntityConsumption, &owner); err != nil {
		return nil, err
	}
	record, err := s.store.GetConsumptionRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.decorateRecords(ctx, []*models.ConsumptionRecord{record}); err != nil {
		return nil, err
	}
	return record, nil
}

// CreateConsumptionRecord creates a record. Admins and accountants only.
func (s *Service) CreateConsumptionRecord(ctx context.Context, actor models.Actor, record *models.ConsumptionRecord) error {
	if err := s.authorize(actor, policy.OpCreate, policy.EntityConsumption, nil); err != nil {
		return err
	}
	if err := s.validateRecord(ctx, record); err != nil {
		return err
	}
	return s.store.CreateConsumptionRecord(ctx, record)
}

// UpdateConsumptionRecord updates a record. Admins and accountants only.
func (s *Service) UpdateConsumptionRecord(ctx context.Context, actor models.Actor, record *models.ConsumptionRecord) error {
	if err := s.authorize(actor, policy.OpUpdate, policy.EntityConsumption, nil); err != nil {
		return err
	}
	if _, err := s.store.GetConsumptionRecord(ctx, record.ID); err != nil {
		return err
	}
	if err := s.validateRecord(ctx, record); err != nil {
		return err
	}
	return s.store.UpdateConsumptionRecord(ctx, record)
}

// DeleteConsumptionRecord deletes a record. Admin only.
func (s *Service) DeleteConsumptionRecord(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if err := s.authorize(actor, policy.OpDelete, policy.EntityConsumption, nil); err != nil {
		return err
	}
	return s.store.DeleteConsumptionRecord(ctx, id)
}

// IngestReading records a reading published by a meter, addressed by serial
// number. Used by the message subscriber, which authenticates at the broker
// rather than through the policy table.
func (s *Service) IngestReading(ctx context.Context, serial string, periodStart, periodEnd time.Time, kwh float64) (*models.ConsumptionRecord, error) {
	meter, err := s.store.GetMeterBySerial(ctx, serial)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &ValidationError{Field: "serialNumber", Message: "unknown meter"}
		}
		return nil, err
	}

	record := &models.ConsumptionRecord{
		MeterID:        meter.ID,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		ConsumptionKWh: kwh,
	}
	if err := s.validateRecord(ctx, record); err != nil {
		return nil, err
	}
	if err := s.store.CreateConsumptionRecord(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) validateRecord(ctx context.Context, record *models.ConsumptionRecord) error {
	if record.ConsumptionKWh < 0 {
		return &ValidationError{Field: "consumptionKwh", Message: "must not be negative"}
	}
	if record.PeriodStart.IsZero() || record.PeriodEnd.IsZero() {
		return &ValidationError{Field: "periodStart", Message: "period must be set"}
	}
	if record.PeriodEnd.Before(record.PeriodStart) {
		return &ValidationError{Field: "periodEnd", Message: "must not precede periodStart"}
	}
	if _, err := s.store.GetMeter(ctx, record.MeterID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &ValidationError{Field: "meterId", Message: "unknown meter"}
		}
		return err
	}
	return nil
}

// decorateRecords fills meter serials, building names and estimated costs.
// A record whose meter or building is gone is a data integrity failure; a
// building whose tariff is gone only loses its cost estimate, reported as
// null rather than zero.
func (s *Service) decorateRecords(ctx context.Context, records []*models.ConsumptionRecord) error {
	if len(records) == 0 {
		return nil
	}

	meters, err := s.store.ListMeters(ctx)
	if err != nil {
		return err
	}
	meterByID := make(map[uuid.UUID]*models.Meter, len(meters))
	for _, m := range meters {
		meterByID[m.ID] = m
	}

	buildings, err := s.store.ListBuildings(ctx)
	if err != nil {
		return err
	}
	buildingByID := make(map[uuid.UUID]*models.Building, len(buildings))
	for _, b := range buildings {
		buildingByID[b.ID] = b
	}

	tariffs, err := s.store.ListTariffs(ctx)
	if err != nil {
		return err
	}
	tariffByID := make(map[uuid.UUID]*models.Tariff, len(tariffs))
	for _, t := range tariffs {
		tariffByID[t.ID] = t
	}

	for _, record := range records {
		meter, ok := meterByID[record.MeterID]
		if !ok {
			return &ownership.IntegrityError{Entity: "consumption record", ID: record.ID, Link: "meter"}
		}
		building, ok := buildingByID[meter.BuildingID]
		if !ok {
			return &ownership.IntegrityError{Entity: "meter", ID: meter.ID, Link: "building"}
		}
		record.MeterSerial = meter.SerialNumber
		record.BuildingName = building.Name
		record.EstimatedCost = billing.EstimatedCost(record, tariffByID[building.TariffID])
	}
	return nil
}
