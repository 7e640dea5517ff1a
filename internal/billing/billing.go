// Package billing turns raw consumption readings into billed amounts. All
// functions are pure; stored values are never rounded, only presented ones.
package billing

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/models"
)

// Cost prices a reading at the given tariff rate. The result is the raw
// product; apply Round2 only at the point of output.
func Cost(consumptionKWh, ratePerKWh float64) float64 {
	return consumptionKWh * ratePerKWh
}

// Round2 rounds a monetary amount to two decimal places, half up.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// EstimatedCost prices a record against its tariff and returns the rounded
// presentation value. A nil tariff yields nil: an unpriceable reading is
// reported as absent, never as free.
func EstimatedCost(record *models.ConsumptionRecord, tariff *models.Tariff) *float64 {
	if record == nil || tariff == nil {
		return nil
	}
	cost := Round2(Cost(record.ConsumptionKWh, tariff.RatePerKWh))
	return &cost
}

// BuildingTotal aggregates consumption and cost for one building.
type BuildingTotal struct {
	BuildingID   uuid.UUID `json:"buildingId"`
	BuildingName string    `json:"buildingName"`
	TotalKWh     float64   `json:"totalKwh"`
	TotalCost    float64   `json:"totalCost"`
}

// Report is the per-building aggregation plus grand totals. Buildings are
// keyed by id, so two buildings sharing a name stay separate rows.
type Report struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	Buildings   []BuildingTotal `json:"buildings"`
	TotalKWh    float64         `json:"totalKwh"`
	TotalCost   float64         `json:"totalCost"`
}

// BuildReport aggregates records per building and computes the grand total.
// Every record must resolve through its meter to a building and tariff; a
// dangling link is a data-integrity failure for the whole report, not a row
// to silently drop. Totals are accumulated raw and rounded once at the end.
func BuildReport(
	records []*models.ConsumptionRecord,
	meters []*models.Meter,
	buildings []*models.Building,
	tariffs []*models.Tariff,
) (*Report, error) {
	meterByID := make(map[uuid.UUID]*models.Meter, len(meters))
	for _, m := range meters {
		meterByID[m.ID] = m
	}
	buildingByID := make(map[uuid.UUID]*models.Building, len(buildings))
	for _, b := range buildings {
		buildingByID[b.ID] = b
	}
	tariffByID := make(map[uuid.UUID]*models.Tariff, len(tariffs))
	for _, t := range tariffs {
		tariffByID[t.ID] = t
	}

	totals := make(map[uuid.UUID]*BuildingTotal)
	var grandKWh, grandCost float64

	for _, rec := range records {
		meter, ok := meterByID[rec.MeterID]
		if !ok {
			return nil, fmt.Errorf("record %s references missing meter %s", rec.ID, rec.MeterID)
		}
		building, ok := buildingByID[meter.BuildingID]
		if !ok {
			return nil, fmt.Errorf("meter %s references missing building %s", meter.ID, meter.BuildingID)
		}
		tariff, ok := tariffByID[building.TariffID]
		if !ok {
			return nil, fmt.Errorf("building %s references missing tariff %s", building.ID, building.TariffID)
		}

		total, ok := totals[building.ID]
		if !ok {
			total = &BuildingTotal{BuildingID: building.ID, BuildingName: building.Name}
			totals[building.ID] = total
		}

		cost := Cost(rec.ConsumptionKWh, tariff.RatePerKWh)
		total.TotalKWh += rec.ConsumptionKWh
		total.TotalCost += cost
		grandKWh += rec.ConsumptionKWh
		grandCost += cost
	}

	report := &Report{
		GeneratedAt: time.Now().UTC(),
		Buildings:   make([]BuildingTotal, 0, len(totals)),
	}
	for _, total := range totals {
		total.TotalKWh = Round2(total.TotalKWh)
		total.TotalCost = Round2(total.TotalCost)
		report.Buildings = append(report.Buildings, *total)
	}
	sort.Slice(report.Buildings, func(i, j int) bool {
		return report.Buildings[i].BuildingName < report.Buildings[j].BuildingName
	})
	report.TotalKWh = Round2(grandKWh)
	report.TotalCost = Round2(grandCost)

	return report, nil
}
