package storage

import (
	"context"
	"fmt"
)

// schema is applied on startup. Statements are idempotent so the server can
// run against a fresh or existing database.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		login TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL CHECK (role IN ('tenant', 'accountant', 'admin')),
		password_hash TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS regions (
		id UUID PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		name TEXT NOT NULL,
		timezone TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tariffs (
		id UUID PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		name TEXT NOT NULL,
		rate_per_kwh DOUBLE PRECISION NOT NULL CHECK (rate_per_kwh > 0),
		valid_from DATE NOT NULL,
		valid_to DATE
	)`,
	`CREATE TABLE IF NOT EXISTS buildings (
		id UUID PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		type TEXT NOT NULL CHECK (type IN ('residential', 'industrial', 'public')),
		region_id UUID NOT NULL REFERENCES regions (id),
		tariff_id UUID NOT NULL REFERENCES tariffs (id),
		user_id UUID NOT NULL REFERENCES users (id)
	)`,
	`CREATE TABLE IF NOT EXISTS meters (
		id UUID PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		serial_number TEXT NOT NULL UNIQUE,
		installation_date DATE NOT NULL,
		building_id UUID NOT NULL REFERENCES buildings (id)
	)`,
	`CREATE TABLE IF NOT EXISTS consumption_records (
		id UUID PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		meter_id UUID NOT NULL REFERENCES meters (id),
		period_start DATE NOT NULL,
		period_end DATE NOT NULL CHECK (period_end >= period_start),
		consumption_kwh DOUBLE PRECISION NOT NULL CHECK (consumption_kwh >= 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_buildings_user ON buildings (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_buildings_region ON buildings (region_id)`,
	`CREATE INDEX IF NOT EXISTS idx_meters_building ON meters (building_id)`,
	`CREATE INDEX IF NOT EXISTS idx_records_meter ON consumption_records (meter_id)`,
}

// Migrate creates missing tables and indexes.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.getDB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
