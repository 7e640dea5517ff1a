package models

import (
	"time"

	"github.com/google/uuid"
)

// Meter represents an electricity meter installed in a building
type Meter struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	SerialNumber     string    `json:"serialNumber" db:"serial_number"`
	InstallationDate time.Time `json:"installationDate" db:"installation_date"`
	BuildingID       uuid.UUID `json:"buildingId" db:"building_id"`

	// Display field resolved from the referenced building; not persisted.
	BuildingName string `json:"buildingName,omitempty" db:"-"`
}
