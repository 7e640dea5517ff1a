package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energy-server/energy-server/internal/models"
	"github.com/energy-server/energy-server/internal/storage"
	"github.com/energy-server/energy-server/pkg/crypto"
)

// fixture is a small populated world: two tenants with one building, one
// meter and one record each.
type fixture struct {
	svc   *Service
	store *storage.MemoryStore

	admin      models.Actor
	accountant models.Actor
	tenant1    models.Actor
	tenant2    models.Actor

	region      *models.Region
	tariff      *models.Tariff
	b1, b2      *models.Building
	m1, m2      *models.Meter
	r1, r2      *models.ConsumptionRecord
	tenant1User *models.User
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()
	f := &fixture{store: store, svc: New(store)}

	mkUser := func(login string, role models.Role) (*models.User, models.Actor) {
		user := &models.User{Login: login, Role: role, PasswordHash: "x"}
		require.NoError(t, store.CreateUser(ctx, user))
		return user, models.Actor{UserID: user.ID, Login: login, Role: role}
	}

	_, f.admin = mkUser("admin", models.RoleAdmin)
	_, f.accountant = mkUser("books", models.RoleAccountant)
	f.tenant1User, f.tenant1 = mkUser("tenant1", models.RoleTenant)
	_, f.tenant2 = mkUser("tenant2", models.RoleTenant)

	f.region = &models.Region{Name: "North", Timezone: "Europe/Berlin"}
	require.NoError(t, store.CreateRegion(ctx, f.region))

	f.tariff = &models.Tariff{Name: "Standard", RatePerKWh: 5.50, ValidFrom: date("2025-01-01")}
	require.NoError(t, store.CreateTariff(ctx, f.tariff))

	mkBuilding := func(name string, owner uuid.UUID) *models.Building {
		b := &models.Building{
			Name: name, Address: name + " street", Type: models.BuildingResidential,
			RegionID: f.region.ID, TariffID: f.tariff.ID, UserID: owner,
		}
		require.NoError(t, store.CreateBuilding(ctx, b))
		return b
	}
	f.b1 = mkBuilding("Block A", f.tenant1.UserID)
	f.b2 = mkBuilding("Block B", f.tenant2.UserID)

	mkMeter := func(serial string, buildingID uuid.UUID) *models.Meter {
		m := &models.Meter{SerialNumber: serial, InstallationDate: date("2025-02-01"), BuildingID: buildingID}
		require.NoError(t, store.CreateMeter(ctx, m))
		return m
	}
	f.m1 = mkMeter("SN-1", f.b1.ID)
	f.m2 = mkMeter("SN-2", f.b2.ID)

	mkRecord := func(meterID uuid.UUID, kwh float64) *models.ConsumptionRecord {
		r := &models.ConsumptionRecord{
			MeterID: meterID, PeriodStart: date("2025-03-01"), PeriodEnd: date("2025-03-31"),
			ConsumptionKWh: kwh,
		}
		require.NoError(t, store.CreateConsumptionRecord(ctx, r))
		return r
	}
	f.r1 = mkRecord(f.m1.ID, 120.333)
	f.r2 = mkRecord(f.m2.ID, 80)

	return f
}

// ========== Tenant visibility ==========

func TestTenantListsOnlyOwnedRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	buildings, err := f.svc.ListBuildings(ctx, f.tenant1)
	require.NoError(t, err)
	require.Len(t, buildings, 1)
	assert.Equal(t, f.b1.ID, buildings[0].ID)

	meters, err := f.svc.ListMeters(ctx, f.tenant1)
	require.NoError(t, err)
	require.Len(t, meters, 1)
	assert.Equal(t, f.m1.ID, meters[0].ID)

	records, err := f.svc.ListConsumptionRecords(ctx, f.tenant1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, f.r1.ID, records[0].ID)
}

func TestAdminAndAccountantListEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, actor := range []models.Actor{f.admin, f.accountant} {
		buildings, err := f.svc.ListBuildings(ctx, actor)
		require.NoError(t, err)
		assert.Len(t, buildings, 2)

		records, err := f.svc.ListConsumptionRecords(ctx, actor)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	}
}

func TestTenantCannotReadForeignRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var denyErr *DenyError

	_, err := f.svc.GetBuilding(ctx, f.tenant1, f.b2.ID)
	assert.ErrorAs(t, err, &denyErr)

	_, err = f.svc.GetMeter(ctx, f.tenant1, f.m2.ID)
	assert.ErrorAs(t, err, &denyErr)

	_, err = f.svc.GetConsumptionRecord(ctx, f.tenant1, f.r2.ID)
	assert.ErrorAs(t, err, &denyErr)
}

func TestTenantReadsReferencedRegionButCannotList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	region, err := f.svc.GetRegion(ctx, f.tenant1, f.region.ID)
	require.NoError(t, err)
	assert.Equal(t, "North", region.Name)

	tariff, err := f.svc.GetTariff(ctx, f.tenant1, f.tariff.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.50, tariff.RatePerKWh)

	var denyErr *DenyError
	_, err = f.svc.ListRegions(ctx, f.tenant1)
	assert.ErrorAs(t, err, &denyErr)
	_, err = f.svc.ListTariffs(ctx, f.tenant1)
	assert.ErrorAs(t, err, &denyErr)
}

func TestTenantCannotMutate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var denyErr *DenyError

	err := f.svc.CreateRegion(ctx, f.tenant1, &models.Region{Name: "X", Timezone: "UTC"})
	assert.ErrorAs(t, err, &denyErr)

	err = f.svc.DeleteBuilding(ctx, f.tenant1, f.b1.ID)
	assert.ErrorAs(t, err, &denyErr)

	err = f.svc.UpdateConsumptionRecord(ctx, f.tenant1, f.r1)
	assert.ErrorAs(t, err, &denyErr)
}

// ========== Decoration and pricing ==========

func TestRecordCarriesEstimatedCost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	record, err := f.svc.GetConsumptionRecord(ctx, f.tenant1, f.r1.ID)
	require.NoError(t, err)

	require.NotNil(t, record.EstimatedCost)
	assert.Equal(t, 661.83, *record.EstimatedCost) // 120.333 kWh at 5.50
	assert.Equal(t, "SN-1", record.MeterSerial)
	assert.Equal(t, "Block A", record.BuildingName)
}

func TestBuildingCarriesDisplayNames(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	building, err := f.svc.GetBuilding(ctx, f.tenant1, f.b1.ID)
	require.NoError(t, err)

	assert.Equal(t, "North", building.RegionName)
	assert.Equal(t, "Standard", building.TariffName)
	assert.Equal(t, "tenant1", building.OwnerLogin)
}

// ========== Accountant powers ==========

func TestAccountantMaintainsTariffsAndReadings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tariff := &models.Tariff{Name: "Night", RatePerKWh: 3.10, ValidFrom: date("2025-06-01")}
	require.NoError(t, f.svc.CreateTariff(ctx, f.accountant, tariff))

	tariff.RatePerKWh = 3.25
	require.NoError(t, f.svc.UpdateTariff(ctx, f.accountant, tariff))

	record := &models.ConsumptionRecord{
		MeterID: f.m1.ID, PeriodStart: date("2025-04-01"), PeriodEnd: date("2025-04-30"),
		ConsumptionKWh: 42,
	}
	require.NoError(t, f.svc.CreateConsumptionRecord(ctx, f.accountant, record))

	var denyErr *DenyError
	err := f.svc.CreateBuilding(ctx, f.accountant, f.b1)
	assert.ErrorAs(t, err, &denyErr)
	err = f.svc.DeleteConsumptionRecord(ctx, f.accountant, record.ID)
	assert.ErrorAs(t, err, &denyErr)
}

// ========== Users ==========

func TestCreateUserHashesPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user, err := f.svc.CreateUser(ctx, f.admin, "newtenant", "secret123", models.RoleTenant)
	require.NoError(t, err)

	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.True(t, crypto.VerifyPassword("secret123", user.PasswordHash))
}

func TestCreateUserDuplicateLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.CreateUser(ctx, f.admin, "tenant1", "secret123", models.RoleTenant)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestAdminCannotEditOwnAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var denyErr *DenyError

	_, err := f.svc.UpdateUser(ctx, f.admin, f.admin.UserID, "admin2", "", models.RoleAdmin)
	require.ErrorAs(t, err, &denyErr)
	assert.Equal(t, "self-modification not permitted", denyErr.Reason)

	err = f.svc.DeleteUser(ctx, f.admin, f.admin.UserID)
	assert.ErrorAs(t, err, &denyErr)
}

func TestShortPasswordRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var validationErr *ValidationError
	_, err := f.svc.CreateUser(ctx, f.admin, "x", "123", models.RoleTenant)
	assert.ErrorAs(t, err, &validationErr)
}

// ========== Cascade deletes ==========

func TestDeleteRegionCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.svc.DeleteRegion(ctx, f.admin, f.region.ID))

	_, err := f.store.GetRegion(ctx, f.region.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = f.store.GetBuilding(ctx, f.b1.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = f.store.GetMeter(ctx, f.m1.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = f.store.GetConsumptionRecord(ctx, f.r1.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = f.store.GetConsumptionRecord(ctx, f.r2.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Users survive a region cascade.
	_, err = f.store.GetUser(ctx, f.tenant1.UserID)
	assert.NoError(t, err)
}

func TestDeleteUserCascadesOwnedBuildings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.svc.DeleteUser(ctx, f.admin, f.tenant1.UserID))

	_, err := f.store.GetBuilding(ctx, f.b1.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = f.store.GetMeter(ctx, f.m1.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = f.store.GetConsumptionRecord(ctx, f.r1.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// The other tenant's tree is untouched.
	_, err = f.store.GetBuilding(ctx, f.b2.ID)
	assert.NoError(t, err)
	_, err = f.store.GetConsumptionRecord(ctx, f.r2.ID)
	assert.NoError(t, err)
}

func TestDeleteMeterCascadesRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.svc.DeleteMeter(ctx, f.admin, f.m1.ID))

	_, err := f.store.GetConsumptionRecord(ctx, f.r1.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = f.store.GetBuilding(ctx, f.b1.ID)
	assert.NoError(t, err)
}

func TestDeleteAssignedTariffBlocked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var conflictErr *ConflictError
	err := f.svc.DeleteTariff(ctx, f.admin, f.tariff.ID)
	require.ErrorAs(t, err, &conflictErr)

	// Still there.
	_, err = f.store.GetTariff(ctx, f.tariff.ID)
	assert.NoError(t, err)
}

// ========== Validation ==========

func TestBuildingValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var validationErr *ValidationError

	bad := &models.Building{
		Name: "X", Address: "Y", Type: models.BuildingType("castle"),
		RegionID: f.region.ID, TariffID: f.tariff.ID, UserID: f.tenant1.UserID,
	}
	err := f.svc.CreateBuilding(ctx, f.admin, bad)
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "type", validationErr.Field)

	bad.Type = models.BuildingResidential
	bad.RegionID = uuid.New()
	err = f.svc.CreateBuilding(ctx, f.admin, bad)
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "regionId", validationErr.Field)
}

func TestRecordValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var validationErr *ValidationError

	bad := &models.ConsumptionRecord{
		MeterID: f.m1.ID, PeriodStart: date("2025-05-31"), PeriodEnd: date("2025-05-01"),
		ConsumptionKWh: 10,
	}
	err := f.svc.CreateConsumptionRecord(ctx, f.admin, bad)
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "periodEnd", validationErr.Field)

	bad = &models.ConsumptionRecord{
		MeterID: f.m1.ID, PeriodStart: date("2025-05-01"), PeriodEnd: date("2025-05-31"),
		ConsumptionKWh: -1,
	}
	err = f.svc.CreateConsumptionRecord(ctx, f.admin, bad)
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "consumptionKwh", validationErr.Field)
}

func TestNegativeTariffRateRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var validationErr *ValidationError
	err := f.svc.CreateTariff(ctx, f.admin, &models.Tariff{Name: "Bad", RatePerKWh: -1, ValidFrom: date("2025-01-01")})
	assert.ErrorAs(t, err, &validationErr)
}

// ========== Ingest ==========

func TestIngestReadingBySerial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	record, err := f.svc.IngestReading(ctx, "SN-1", date("2025-07-01"), date("2025-07-31"), 55.5)
	require.NoError(t, err)
	assert.Equal(t, f.m1.ID, record.MeterID)

	stored, err := f.store.GetConsumptionRecord(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, 55.5, stored.ConsumptionKWh)
}

func TestIngestUnknownSerial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var validationErr *ValidationError
	_, err := f.svc.IngestReading(ctx, "SN-404", date("2025-07-01"), date("2025-07-31"), 1)
	assert.ErrorAs(t, err, &validationErr)
}

// ========== Reporting ==========

func TestReportPerBuilding(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	report, err := f.svc.BuildReport(ctx, f.accountant)
	require.NoError(t, err)
	require.Len(t, report.Buildings, 2)

	byID := make(map[uuid.UUID]float64)
	for _, row := range report.Buildings {
		byID[row.BuildingID] = row.TotalCost
	}
	assert.Equal(t, 661.83, byID[f.b1.ID])
	assert.Equal(t, 440.0, byID[f.b2.ID])

	var denyErr *DenyError
	_, err = f.svc.BuildReport(ctx, f.tenant1)
	assert.ErrorAs(t, err, &denyErr)
}

func TestStatsScopedToTenant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	all, err := f.svc.BuildStats(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, 2, all.Buildings)
	assert.Equal(t, 2, all.Meters)
	assert.Equal(t, 2, all.Records)
	assert.Equal(t, 200.33, all.TotalKWh)

	own, err := f.svc.BuildStats(ctx, f.tenant1)
	require.NoError(t, err)
	assert.Equal(t, 1, own.Buildings)
	assert.Equal(t, 1, own.Meters)
	assert.Equal(t, 1, own.Records)
	assert.Equal(t, 120.33, own.TotalKWh)
	assert.Equal(t, 661.83, own.TotalCost)
}
