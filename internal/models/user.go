package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a system user
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Login string `json:"login" db:"login"`
	Role  Role   `json:"role" db:"role"`

	PasswordHash string `json:"-" db:"password_hash"`
}
