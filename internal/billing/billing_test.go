package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energy-server/energy-server/internal/models"
)

func TestCostIsLinear(t *testing.T) {
	assert.Equal(t, 0.0, Cost(0, 5.5))
	assert.Equal(t, 55.0, Cost(10, 5.5))
	assert.InDelta(t, Cost(3, 5.5)+Cost(7, 5.5), Cost(10, 5.5), 1e-9)
}

func TestRound2HalfUp(t *testing.T) {
	assert.Equal(t, 661.83, Round2(120.333*5.50))
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, 2.67, Round2(2.674999))
}

func TestEstimatedCost(t *testing.T) {
	record := &models.ConsumptionRecord{ConsumptionKWh: 120.333}
	tariff := &models.Tariff{RatePerKWh: 5.50}

	cost := EstimatedCost(record, tariff)
	require.NotNil(t, cost)
	assert.Equal(t, 661.83, *cost)
}

func TestEstimatedCostNilTariff(t *testing.T) {
	record := &models.ConsumptionRecord{ConsumptionKWh: 120.333}

	// A reading that cannot be priced must come back absent, not free.
	assert.Nil(t, EstimatedCost(record, nil))
	assert.Nil(t, EstimatedCost(nil, &models.Tariff{RatePerKWh: 1}))
}

func reportFixture() ([]*models.ConsumptionRecord, []*models.Meter, []*models.Building, []*models.Tariff) {
	tariff := &models.Tariff{ID: uuid.New(), Name: "Standard", RatePerKWh: 2.0, ValidFrom: time.Now()}

	b1 := &models.Building{ID: uuid.New(), Name: "Mill", TariffID: tariff.ID}
	b2 := &models.Building{ID: uuid.New(), Name: "Mill", TariffID: tariff.ID} // same name, distinct building

	m1 := &models.Meter{ID: uuid.New(), SerialNumber: "M-1", BuildingID: b1.ID}
	m2 := &models.Meter{ID: uuid.New(), SerialNumber: "M-2", BuildingID: b2.ID}

	records := []*models.ConsumptionRecord{
		{ID: uuid.New(), MeterID: m1.ID, ConsumptionKWh: 100},
		{ID: uuid.New(), MeterID: m1.ID, ConsumptionKWh: 50},
		{ID: uuid.New(), MeterID: m2.ID, ConsumptionKWh: 25},
	}

	return records, []*models.Meter{m1, m2}, []*models.Building{b1, b2}, []*models.Tariff{tariff}
}

func TestBuildReportKeysByBuildingID(t *testing.T) {
	records, meters, buildings, tariffs := reportFixture()

	report, err := BuildReport(records, meters, buildings, tariffs)
	require.NoError(t, err)

	// Two buildings share a name but stay separate rows.
	require.Len(t, report.Buildings, 2)

	byID := make(map[uuid.UUID]BuildingTotal)
	for _, row := range report.Buildings {
		byID[row.BuildingID] = row
	}

	assert.Equal(t, 150.0, byID[buildings[0].ID].TotalKWh)
	assert.Equal(t, 300.0, byID[buildings[0].ID].TotalCost)
	assert.Equal(t, 25.0, byID[buildings[1].ID].TotalKWh)
	assert.Equal(t, 50.0, byID[buildings[1].ID].TotalCost)

	assert.Equal(t, 175.0, report.TotalKWh)
	assert.Equal(t, 350.0, report.TotalCost)
}

func TestBuildReportRoundsOnceAtTheEnd(t *testing.T) {
	tariff := &models.Tariff{ID: uuid.New(), RatePerKWh: 0.333, ValidFrom: time.Now()}
	building := &models.Building{ID: uuid.New(), Name: "Depot", TariffID: tariff.ID}
	meter := &models.Meter{ID: uuid.New(), SerialNumber: "M-1", BuildingID: building.ID}

	var records []*models.ConsumptionRecord
	var raw float64
	for i := 0; i < 10; i++ {
		records = append(records, &models.ConsumptionRecord{ID: uuid.New(), MeterID: meter.ID, ConsumptionKWh: 0.01})
		raw += 0.01 * 0.333
	}

	report, err := BuildReport(records, []*models.Meter{meter}, []*models.Building{building}, []*models.Tariff{tariff})
	require.NoError(t, err)

	// Accumulated raw, rounded once: no per-row rounding drift.
	assert.Equal(t, Round2(raw), report.TotalCost)
}

func TestBuildReportDanglingLinksFail(t *testing.T) {
	records, meters, buildings, tariffs := reportFixture()

	_, err := BuildReport(records, nil, buildings, tariffs)
	assert.Error(t, err)

	_, err = BuildReport(records, meters, nil, tariffs)
	assert.Error(t, err)

	_, err = BuildReport(records, meters, buildings, nil)
	assert.Error(t, err)
}

func TestBuildReportEmpty(t *testing.T) {
	report, err := BuildReport(nil, nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Buildings)
	assert.Equal(t, 0.0, report.TotalKWh)
	assert.Equal(t, 0.0, report.TotalCost)
}
