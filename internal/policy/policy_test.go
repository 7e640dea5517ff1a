package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/energy-server/energy-server/internal/models"
)

func TestAdminAllowedEverywhere(t *testing.T) {
	actor := uuid.New()
	other := uuid.New()

	for _, entity := range []Entity{EntityRole, EntityUser, EntityRegion, EntityTariff, EntityBuilding, EntityMeter, EntityConsumption} {
		for _, op := range []Operation{OpList, OpRead, OpCreate, OpUpdate, OpDelete} {
			d := Authorize(models.RoleAdmin, op, entity, &other, actor)
			assert.True(t, d.Allowed, "admin %s %s", op, entity)
		}
	}
}

func TestAdminCannotEditOwnAccount(t *testing.T) {
	actor := uuid.New()

	update := Authorize(models.RoleAdmin, OpUpdate, EntityUser, &actor, actor)
	assert.False(t, update.Allowed)
	assert.Equal(t, ReasonSelfEdit, update.Reason)

	del := Authorize(models.RoleAdmin, OpDelete, EntityUser, &actor, actor)
	assert.False(t, del.Allowed)
	assert.Equal(t, ReasonSelfEdit, del.Reason)

	// Reading your own row stays allowed.
	read := Authorize(models.RoleAdmin, OpRead, EntityUser, &actor, actor)
	assert.True(t, read.Allowed)
}

func TestAccountantMatrix(t *testing.T) {
	actor := uuid.New()

	cases := []struct {
		entity  Entity
		op      Operation
		allowed bool
	}{
		{EntityRegion, OpList, true},
		{EntityRegion, OpRead, true},
		{EntityRegion, OpCreate, false},
		{EntityRegion, OpDelete, false},
		{EntityBuilding, OpRead, true},
		{EntityBuilding, OpUpdate, false},
		{EntityMeter, OpList, true},
		{EntityMeter, OpCreate, false},
		{EntityTariff, OpCreate, true},
		{EntityTariff, OpUpdate, true},
		{EntityTariff, OpDelete, false},
		{EntityConsumption, OpCreate, true},
		{EntityConsumption, OpUpdate, true},
		{EntityConsumption, OpDelete, false},
		{EntityUser, OpList, false},
		{EntityUser, OpRead, false},
		{EntityRole, OpRead, false},
	}

	for _, tc := range cases {
		d := Authorize(models.RoleAccountant, tc.op, tc.entity, nil, actor)
		assert.Equal(t, tc.allowed, d.Allowed, "accountant %s %s", tc.op, tc.entity)
		if !tc.allowed {
			assert.Equal(t, ReasonForbidden, d.Reason)
		}
	}
}

func TestTenantSeesOnlyOwnedRows(t *testing.T) {
	actor := uuid.New()
	other := uuid.New()

	for _, entity := range []Entity{EntityBuilding, EntityMeter, EntityConsumption} {
		owned := Authorize(models.RoleTenant, OpRead, entity, &actor, actor)
		assert.True(t, owned.Allowed, "tenant read owned %s", entity)

		foreign := Authorize(models.RoleTenant, OpRead, entity, &other, actor)
		assert.False(t, foreign.Allowed, "tenant read foreign %s", entity)

		unresolved := Authorize(models.RoleTenant, OpRead, entity, nil, actor)
		assert.False(t, unresolved.Allowed, "tenant read %s with no owner", entity)
	}
}

func TestTenantNeverMutates(t *testing.T) {
	actor := uuid.New()

	for _, entity := range []Entity{EntityRole, EntityUser, EntityRegion, EntityTariff, EntityBuilding, EntityMeter, EntityConsumption} {
		for _, op := range []Operation{OpCreate, OpUpdate, OpDelete} {
			d := Authorize(models.RoleTenant, op, entity, &actor, actor)
			assert.False(t, d.Allowed, "tenant %s %s", op, entity)
		}
	}
}

func TestTenantReadsReferencedRegionAndTariff(t *testing.T) {
	actor := uuid.New()

	assert.True(t, Authorize(models.RoleTenant, OpRead, EntityRegion, nil, actor).Allowed)
	assert.True(t, Authorize(models.RoleTenant, OpRead, EntityTariff, nil, actor).Allowed)

	// Single-record read-through never extends to listing.
	assert.False(t, Authorize(models.RoleTenant, OpList, EntityRegion, nil, actor).Allowed)
	assert.False(t, Authorize(models.RoleTenant, OpList, EntityTariff, nil, actor).Allowed)
}

func TestUnknownRoleDenied(t *testing.T) {
	actor := uuid.New()

	d := Authorize(models.Role("operator"), OpRead, EntityRegion, nil, actor)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonForbidden, d.Reason)
}

func TestListScope(t *testing.T) {
	assert.Equal(t, ScopeAll, ListScope(models.RoleAdmin, EntityUser))
	assert.Equal(t, ScopeAll, ListScope(models.RoleAdmin, EntityConsumption))

	assert.Equal(t, ScopeAll, ListScope(models.RoleAccountant, EntityBuilding))
	assert.Equal(t, ScopeNone, ListScope(models.RoleAccountant, EntityUser))

	assert.Equal(t, ScopeOwned, ListScope(models.RoleTenant, EntityBuilding))
	assert.Equal(t, ScopeOwned, ListScope(models.RoleTenant, EntityMeter))
	assert.Equal(t, ScopeOwned, ListScope(models.RoleTenant, EntityConsumption))
	assert.Equal(t, ScopeNone, ListScope(models.RoleTenant, EntityRegion))
	assert.Equal(t, ScopeNone, ListScope(models.RoleTenant, EntityTariff))

	assert.Equal(t, ScopeNone, ListScope(models.Role("operator"), EntityBuilding))
}
