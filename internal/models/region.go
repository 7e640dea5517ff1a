package models

import (
	"time"

	"github.com/google/uuid"
)

// Region represents a geographic region that groups buildings
type Region struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Name     string `json:"name" db:"name"`
	Timezone string `json:"timezone" db:"timezone"`
}
