// Package ownership resolves the foreign-key chain from a record up to the
// user that owns it: ConsumptionRecord -> Meter -> Building -> User. The
// resolved owner feeds the policy engine's tenant visibility checks.
package ownership

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/storage"
)

// IntegrityError reports a dangling foreign key discovered while walking an
// ownership chain. The store violated an invariant; the operation must fail
// rather than mask the hole as a plain not-found.
type IntegrityError struct {
	Entity string
	ID     uuid.UUID
	Link   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("data integrity: %s %s references missing %s", e.Entity, e.ID, e.Link)
}

// Resolver walks ownership chains against the store. Read-only; it never
// mutates anything.
type Resolver struct {
	store storage.Store
}

// NewResolver creates a resolver over the given store.
func NewResolver(store storage.Store) *Resolver {
	return &Resolver{store: store}
}

// BuildingOwner returns the id of the user owning the building.
// storage.ErrNotFound means the building itself does not exist; a missing
// owner row is an IntegrityError.
func (r *Resolver) BuildingOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	building, err := r.store.GetBuilding(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := r.store.GetUser(ctx, building.UserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return uuid.Nil, &IntegrityError{Entity: "building", ID: id, Link: "user"}
		}
		return uuid.Nil, err
	}
	return building.UserID, nil
}

// MeterOwner returns the id of the user owning the meter's building.
func (r *Resolver) MeterOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	meter, err := r.store.GetMeter(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	owner, err := r.BuildingOwner(ctx, meter.BuildingID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return uuid.Nil, &IntegrityError{Entity: "meter", ID: id, Link: "building"}
		}
		return uuid.Nil, err
	}
	return owner, nil
}

// RecordOwner returns the id of the user owning the consumption record's
// meter chain.
func (r *Resolver) RecordOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	record, err := r.store.GetConsumptionRecord(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	owner, err := r.MeterOwner(ctx, record.MeterID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return uuid.Nil, &IntegrityError{Entity: "consumption record", ID: id, Link: "meter"}
		}
		return uuid.Nil, err
	}
	return owner, nil
}
