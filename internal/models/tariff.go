package models

import (
	"time"

	"github.com/google/uuid"
)

// Tariff represents a time-bounded electricity price
type Tariff struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Name       string     `json:"name" db:"name"`
	RatePerKWh float64    `json:"ratePerKwh" db:"rate_per_kwh"`
	ValidFrom  time.Time  `json:"validFrom" db:"valid_from"`
	ValidTo    *time.Time `json:"validTo,omitempty" db:"valid_to"`
}
