package models

import (
	"github.com/google/uuid"
)

// Role is the closed set of actor roles. Policy decisions switch over this
// type exhaustively; an unknown value always denies.
type Role string

const (
	RoleTenant     Role = "tenant"
	RoleAccountant Role = "accountant"
	RoleAdmin      Role = "admin"
)

// Roles lists all defined roles.
func Roles() []Role {
	return []Role{RoleTenant, RoleAccountant, RoleAdmin}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleTenant, RoleAccountant, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Actor identifies the authenticated user an operation runs on behalf of.
// It is threaded explicitly through every service call, never carried in
// package-level state.
type Actor struct {
	UserID uuid.UUID `json:"userId"`
	Login  string    `json:"login"`
	Role   Role      `json:"role"`
}
