// Package policy implements the access decision table for the energy
// accounting API. Every inbound operation is mapped to an explicit Allow or
// Deny before it reaches storage; list operations are additionally scoped so
// tenants only ever see rows they own.
package policy

import (
	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/models"
)

// Entity enumerates the record types the policy table covers.
type Entity string

const (
	EntityRole        Entity = "role"
	EntityUser        Entity = "user"
	EntityRegion      Entity = "region"
	EntityTariff      Entity = "tariff"
	EntityBuilding    Entity = "building"
	EntityMeter       Entity = "meter"
	EntityConsumption Entity = "consumption"
)

// Operation enumerates the actions the policy table covers.
type Operation string

const (
	OpList   Operation = "list"
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Scope describes how a list operation must be filtered for a role.
type Scope int

const (
	// ScopeNone denies the listing outright.
	ScopeNone Scope = iota
	// ScopeOwned restricts the listing to rows whose ownership chain ends
	// at the acting user.
	ScopeOwned
	// ScopeAll returns the unfiltered set.
	ScopeAll
)

// Decision is the outcome of an authorization check. Callers must branch on
// Allowed explicitly; a Deny is never downgraded to an empty success.
type Decision struct {
	Allowed bool
	Reason  string
}

// Deny reasons surfaced to the boundary layer.
const (
	ReasonForbidden = "forbidden"
	ReasonSelfEdit  = "self-modification not permitted"
)

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Authorize decides whether the acting user may perform op on a single
// record of the given entity. ownerUserID is the resolved owner of the
// record (the user at the top of its ownership chain); it is required for
// tenant record access and for user self-edit protection, and may be nil
// for entities without an owner. List operations should use ListScope
// instead, which expresses the tenant row filter.
func Authorize(role models.Role, op Operation, entity Entity, ownerUserID *uuid.UUID, actingUserID uuid.UUID) Decision {
	switch role {
	case models.RoleAdmin:
		return authorizeAdmin(op, entity, ownerUserID, actingUserID)
	case models.RoleAccountant:
		return authorizeAccountant(op, entity)
	case models.RoleTenant:
		return authorizeTenant(op, entity, ownerUserID, actingUserID)
	default:
		// Unknown role: deny by construction.
		return deny(ReasonForbidden)
	}
}

// authorizeAdmin allows everything except edits to the admin's own user
// row, which are blocked to prevent self-lockout.
func authorizeAdmin(op Operation, entity Entity, ownerUserID *uuid.UUID, actingUserID uuid.UUID) Decision {
	if entity == EntityUser && (op == OpUpdate || op == OpDelete) {
		if ownerUserID != nil && *ownerUserID == actingUserID {
			return deny(ReasonSelfEdit)
		}
	}
	return allow()
}

// authorizeAccountant allows reading the billing domain and maintaining
// tariffs and consumption records. Structural entities and accounts stay
// read-only or off limits.
func authorizeAccountant(op Operation, entity Entity) Decision {
	switch entity {
	case EntityRegion, EntityBuilding, EntityMeter:
		if op == OpList || op == OpRead {
			return allow()
		}
	case EntityTariff, EntityConsumption:
		switch op {
		case OpList, OpRead, OpCreate, OpUpdate:
			return allow()
		}
	case EntityRole, EntityUser:
		// No visibility into accounts at all.
	}
	return deny(ReasonForbidden)
}

// authorizeTenant allows read-only access to rows the tenant owns. Region
// and tariff rows referenced by an owned building may be read individually
// so the building detail can be rendered, but tenants get no independent
// region/tariff listing and can never mutate anything.
func authorizeTenant(op Operation, entity Entity, ownerUserID *uuid.UUID, actingUserID uuid.UUID) Decision {
	switch entity {
	case EntityBuilding, EntityMeter, EntityConsumption:
		if op == OpList || op == OpRead {
			if ownerUserID == nil || *ownerUserID != actingUserID {
				return deny(ReasonForbidden)
			}
			return allow()
		}
	case EntityRegion, EntityTariff:
		if op == OpRead {
			return allow()
		}
	case EntityRole, EntityUser:
		// Never visible to tenants.
	}
	return deny(ReasonForbidden)
}

// ListScope returns the row filter to apply when the role lists the entity.
// The policy engine acts as a filter predicate here rather than a single
// allow/deny: tenants see the owned subset, other roles the full set.
func ListScope(role models.Role, entity Entity) Scope {
	switch role {
	case models.RoleAdmin:
		return ScopeAll
	case models.RoleAccountant:
		switch entity {
		case EntityRegion, EntityTariff, EntityBuilding, EntityMeter, EntityConsumption:
			return ScopeAll
		}
		return ScopeNone
	case models.RoleTenant:
		switch entity {
		case EntityBuilding, EntityMeter, EntityConsumption:
			return ScopeOwned
		}
		return ScopeNone
	default:
		return ScopeNone
	}
}
