package ownership

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energy-server/energy-server/internal/models"
	"github.com/energy-server/energy-server/internal/storage"
)

type chain struct {
	store    *storage.MemoryStore
	user     *models.User
	building *models.Building
	meter    *models.Meter
	record   *models.ConsumptionRecord
}

// newChain seeds a full ownership chain: record -> meter -> building -> user.
func newChain(t *testing.T) *chain {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()

	user := &models.User{Login: "tenant1", Role: models.RoleTenant, PasswordHash: "x"}
	require.NoError(t, store.CreateUser(ctx, user))

	region := &models.Region{Name: "North", Timezone: "Europe/Berlin"}
	require.NoError(t, store.CreateRegion(ctx, region))

	tariff := &models.Tariff{Name: "Standard", RatePerKWh: 5.5, ValidFrom: time.Now()}
	require.NoError(t, store.CreateTariff(ctx, tariff))

	building := &models.Building{
		Name: "Block A", Address: "Main St 1", Type: models.BuildingResidential,
		RegionID: region.ID, TariffID: tariff.ID, UserID: user.ID,
	}
	require.NoError(t, store.CreateBuilding(ctx, building))

	meter := &models.Meter{SerialNumber: "SN-1", InstallationDate: time.Now(), BuildingID: building.ID}
	require.NoError(t, store.CreateMeter(ctx, meter))

	record := &models.ConsumptionRecord{
		MeterID: meter.ID, PeriodStart: time.Now(), PeriodEnd: time.Now(), ConsumptionKWh: 10,
	}
	require.NoError(t, store.CreateConsumptionRecord(ctx, record))

	return &chain{store: store, user: user, building: building, meter: meter, record: record}
}

func TestResolveOwnerThroughChain(t *testing.T) {
	ctx := context.Background()
	c := newChain(t)
	r := NewResolver(c.store)

	owner, err := r.BuildingOwner(ctx, c.building.ID)
	require.NoError(t, err)
	assert.Equal(t, c.user.ID, owner)

	owner, err = r.MeterOwner(ctx, c.meter.ID)
	require.NoError(t, err)
	assert.Equal(t, c.user.ID, owner)

	owner, err = r.RecordOwner(ctx, c.record.ID)
	require.NoError(t, err)
	assert.Equal(t, c.user.ID, owner)
}

func TestMissingRecordIsNotFound(t *testing.T) {
	ctx := context.Background()
	c := newChain(t)
	r := NewResolver(c.store)

	_, err := r.RecordOwner(ctx, uuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = r.MeterOwner(ctx, uuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = r.BuildingOwner(ctx, uuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDanglingOwnerIsIntegrityError(t *testing.T) {
	ctx := context.Background()
	c := newChain(t)
	r := NewResolver(c.store)

	// Remove the user underneath the building.
	require.NoError(t, c.store.DeleteUser(ctx, c.user.ID))

	var integrityErr *IntegrityError

	_, err := r.BuildingOwner(ctx, c.building.ID)
	require.ErrorAs(t, err, &integrityErr)
	assert.Equal(t, "building", integrityErr.Entity)
	assert.Equal(t, "user", integrityErr.Link)

	// The hole surfaces through the longer chains too, never as a plain
	// not-found.
	_, err = r.MeterOwner(ctx, c.meter.ID)
	assert.ErrorAs(t, err, &integrityErr)

	_, err = r.RecordOwner(ctx, c.record.ID)
	assert.ErrorAs(t, err, &integrityErr)
}

func TestDanglingBuildingIsIntegrityError(t *testing.T) {
	ctx := context.Background()
	c := newChain(t)
	r := NewResolver(c.store)

	require.NoError(t, c.store.DeleteBuilding(ctx, c.building.ID))

	var integrityErr *IntegrityError

	_, err := r.MeterOwner(ctx, c.meter.ID)
	require.ErrorAs(t, err, &integrityErr)
	assert.Equal(t, "meter", integrityErr.Entity)
	assert.Equal(t, "building", integrityErr.Link)

	_, err = r.RecordOwner(ctx, c.record.ID)
	assert.ErrorAs(t, err, &integrityErr)
}
