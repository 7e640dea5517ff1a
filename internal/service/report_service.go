package service

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/billing"
	"github.com/energy-server/energy-server/internal/models"
	"github.com/energy-server/energy-server/internal/policy"
)

// ========== Reporting ==========

// BuildReport aggregates all consumption per building with grand totals.
// Admins and accountants only.
func (s *Service) BuildReport(ctx context.Context, actor models.Actor) (*billing.Report, error) {
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleAccountant {
		return nil, &DenyError{Reason: policy.ReasonForbidden}
	}

	records, err := s.store.ListConsumptionRecords(ctx)
	if err != nil {
		return nil, err
	}
	meters, err := s.store.ListMeters(ctx)
	if err != nil {
		return nil, err
	}
	buildings, err := s.store.ListBuildings(ctx)
	if err != nil {
		return nil, err
	}
	tariffs, err := s.store.ListTariffs(ctx)
	if err != nil {
		return nil, err
	}

	return billing.BuildReport(records, meters, buildings, tariffs)
}

// WriteReportCSV renders a report as CSV with a totals row at the end.
func WriteReportCSV(w io.Writer, report *billing.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"building", "total_kwh", "total_cost"}); err != nil {
		return err
	}
	for _, b := range report.Buildings {
		row := []string{
			b.BuildingName,
			strconv.FormatFloat(b.TotalKWh, 'f', 2, 64),
			strconv.FormatFloat(b.TotalCost, 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	totals := []string{
		"TOTAL",
		strconv.FormatFloat(report.TotalKWh, 'f', 2, 64),
		strconv.FormatFloat(report.TotalCost, 'f', 2, 64),
	}
	if err := cw.Write(totals); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// Stats summarizes the rows visible to the actor.
type Stats struct {
	Buildings int     `json:"buildings"`
	Meters    int     `json:"meters"`
	Records   int     `json:"records"`
	TotalKWh  float64 `json:"totalKwh"`
	TotalCost float64 `json:"totalCost"`
}

// BuildStats counts buildings, meters and records and totals consumption
// and cost, scoped by the actor's list visibility. Readings whose tariff
// cannot be resolved count toward kWh but not toward cost.
func (s *Service) BuildStats(ctx context.Context, actor models.Actor) (*Stats, error) {
	buildings, err := s.ListBuildings(ctx, actor)
	if err != nil {
		return nil, err
	}
	meters, err := s.ListMeters(ctx, actor)
	if err != nil {
		return nil, err
	}
	records, err := s.ListConsumptionRecords(ctx, actor)
	if err != nil {
		return nil, err
	}

	tariffs, err := s.store.ListTariffs(ctx)
	if err != nil {
		return nil, err
	}
	tariffByID := make(map[uuid.UUID]*models.Tariff, len(tariffs))
	for _, t := range tariffs {
		tariffByID[t.ID] = t
	}
	buildingByID := make(map[uuid.UUID]*models.Building, len(buildings))
	for _, b := range buildings {
		buildingByID[b.ID] = b
	}
	meterByID := make(map[uuid.UUID]*models.Meter, len(meters))
	for _, m := range meters {
		meterByID[m.ID] = m
	}

	stats := &Stats{
		Buildings: len(buildings),
		Meters:    len(meters),
		Records:   len(records),
	}

	var totalCost float64
	for _, record := range records {
		stats.TotalKWh += record.ConsumptionKWh
		meter, ok := meterByID[record.MeterID]
		if !ok {
			continue
		}
		building, ok := buildingByID[meter.BuildingID]
		if !ok {
			continue
		}
		if tariff, ok := tariffByID[building.TariffID]; ok {
			totalCost += billing.Cost(record.ConsumptionKWh, tariff.RatePerKWh)
		}
	}
	stats.TotalKWh = billing.Round2(stats.TotalKWh)
	stats.TotalCost = billing.Round2(totalCost)

	return stats, nil
}
