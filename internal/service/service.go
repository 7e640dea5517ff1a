// Package service holds the application logic between the HTTP boundary and
// storage: every operation authorizes the acting user through the policy
// table, resolves ownership where tenant visibility depends on it, validates
// domain invariants and runs multi-row deletes inside a single transaction.
package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/models"
	"github.com/energy-server/energy-server/internal/ownership"
	"github.com/energy-server/energy-server/internal/policy"
	"github.com/energy-server/energy-server/internal/storage"
)

// ValidationError reports a domain invariant violated by the request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DenyError reports a policy refusal. The reason is safe to surface to the
// client verbatim.
type DenyError struct {
	Reason string
}

func (e *DenyError) Error() string {
	return e.Reason
}

// ConflictError reports an operation blocked by rows that still reference
// the target.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// Service implements the operations exposed by the REST API and the meter
// reading subscriber.
type Service struct {
	store    storage.Store
	resolver *ownership.Resolver
}

// New creates a service over the given store.
func New(store storage.Store) *Service {
	return &Service{
		store:    store,
		resolver: ownership.NewResolver(store),
	}
}

// authorize runs a single-record policy check and converts a deny into a
// DenyError.
func (s *Service) authorize(actor models.Actor, op policy.Operation, entity policy.Entity, owner *uuid.UUID) error {
	decision := policy.Authorize(actor.Role, op, entity, owner, actor.UserID)
	if !decision.Allowed {
		return &DenyError{Reason: decision.Reason}
	}
	return nil
}
