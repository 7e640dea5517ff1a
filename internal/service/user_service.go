package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/models"
	"github.com/energy-server/energy-server/internal/policy"
	"github.com/energy-server/energy-server/pkg/crypto"
)

// ========== Role operations ==========

// ListRoles lists the role enumeration. Reference data for account
// management, so admin only like the user listing.
func (s *Service) ListRoles(actor models.Actor) ([]models.Role, error) {
	if err := s.authorize(actor, policy.OpList, policy.EntityRole, nil); err != nil {
		return nil, err
	}
	return models.Roles(), nil
}

// ========== User operations ==========

// ListUsers lists user accounts. Admin only.
func (s *Service) ListUsers(ctx context.Context, actor models.Actor) ([]*models.User, error) {
	switch policy.ListScope(actor.Role, policy.EntityUser) {
	case policy.ScopeAll:
		return s.store.ListUsers(ctx)
	default:
		return nil, &DenyError{Reason: policy.ReasonForbidden}
	}
}

// GetUser reads a single user account.
func (s *Service) GetUser(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.User, error) {
	if err := s.authorize(actor, policy.OpRead, policy.EntityUser, &id); err != nil {
		return nil, err
	}
	return s.store.GetUser(ctx, id)
}

// CreateUser creates a user account with a bcrypt password hash. Plain
// passwords never reach storage.
func (s *Service) CreateUser(ctx context.Context, actor models.Actor, login, password string, role models.Role) (*models.User, error) {
	if err := s.authorize(actor, policy.OpCreate, policy.EntityUser, nil); err != nil {
		return nil, err
	}
	if login == "" {
		return nil, &ValidationError{Field: "login", Message: "must not be empty"}
	}
	if len(password) < 6 {
		return nil, &ValidationError{Field: "password", Message: "must be at least 6 characters"}
	}
	if !role.Valid() {
		return nil, &ValidationError{Field: "role", Message: "unknown role"}
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Login:        login,
		Role:         role,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser updates a user's login, role and optionally password. The
// acting user can never edit their own row; the policy table blocks the
// self-lockout.
func (s *Service) UpdateUser(ctx context.Context, actor models.Actor, id uuid.UUID, login, password string, role models.Role) (*models.User, error) {
	if err := s.authorize(actor, policy.OpUpdate, policy.EntityUser, &id); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if login == "" {
		return nil, &ValidationError{Field: "login", Message: "must not be empty"}
	}
	if !role.Valid() {
		return nil, &ValidationError{Field: "role", Message: "unknown role"}
	}

	user.Login = login
	user.Role = role
	if password != "" {
		if len(password) < 6 {
			return nil, &ValidationError{Field: "password", Message: "must be at least 6 characters"}
		}
		hash, err := crypto.HashPassword(password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser deletes a user account together with the buildings it owns,
// their meters and records, all in one transaction.
func (s *Service) DeleteUser(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if err := s.authorize(actor, policy.OpDelete, policy.EntityUser, &id); err != nil {
		return err
	}
	if _, err := s.store.GetUser(ctx, id); err != nil {
		return err
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	buildings, err := tx.ListBuildingsByOwner(ctx, id)
	if err != nil {
		return err
	}
	for _, building := range buildings {
		if err := deleteBuildingTree(ctx, tx, building.ID); err != nil {
			return err
		}
	}
	if err := tx.DeleteUser(ctx, id); err != nil {
		return err
	}

	return tx.Commit()
}
