package models

import (
	"time"

	"github.com/google/uuid"
)

// ConsumptionRecord represents a meter reading over a billing period
type ConsumptionRecord struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	MeterID        uuid.UUID `json:"meterId" db:"meter_id"`
	PeriodStart    time.Time `json:"periodStart" db:"period_start"`
	PeriodEnd      time.Time `json:"periodEnd" db:"period_end"`
	ConsumptionKWh float64   `json:"consumptionKwh" db:"consumption_kwh"`

	// Display fields resolved from the ownership chain; not persisted.
	MeterSerial  string `json:"meterSerial,omitempty" db:"-"`
	BuildingName string `json:"buildingName,omitempty" db:"-"`

	// EstimatedCost is the reading priced at the building's tariff, rounded
	// for presentation. Nil when the tariff cannot be resolved; a missing
	// tariff is never reported as a zero cost.
	EstimatedCost *float64 `json:"estimatedCost,omitempty" db:"-"`
}
