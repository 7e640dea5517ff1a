package models

import (
	"time"

	"github.com/google/uuid"
)

// BuildingType classifies a metered building.
type BuildingType string

const (
	BuildingResidential BuildingType = "residential"
	BuildingIndustrial  BuildingType = "industrial"
	BuildingPublic      BuildingType = "public"
)

// Valid reports whether t is one of the defined building types.
func (t BuildingType) Valid() bool {
	switch t {
	case BuildingResidential, BuildingIndustrial, BuildingPublic:
		return true
	}
	return false
}

// Building represents a metered building owned by a user
type Building struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Name    string       `json:"name" db:"name"`
	Address string       `json:"address" db:"address"`
	Type    BuildingType `json:"type" db:"type"`

	RegionID uuid.UUID `json:"regionId" db:"region_id"`
	TariffID uuid.UUID `json:"tariffId" db:"tariff_id"`
	UserID   uuid.UUID `json:"userId" db:"user_id"`

	// Display fields resolved from the referenced rows; not persisted.
	RegionName string `json:"regionName,omitempty" db:"-"`
	TariffName string `json:"tariffName,omitempty" db:"-"`
	OwnerLogin string `json:"ownerLogin,omitempty" db:"-"`
}
