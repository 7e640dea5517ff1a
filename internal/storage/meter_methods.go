package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/models"
)

// ========== Meter Methods ==========

// CreateMeter creates a new meter
func (s *PostgresStore) CreateMeter(ctx context.Context, meter *models.Meter) error {
	if meter.ID == uuid.Nil {
		meter.ID = uuid.New()
	}

	now := time.Now()
	meter.CreatedAt = now
	meter.UpdatedAt = now

	query := `
		INSERT INTO meters (id, created_at, updated_at, serial_number, installation_date, building_id)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.getDB().ExecContext(ctx, query,
		meter.ID, meter.CreatedAt, meter.UpdatedAt, meter.SerialNumber,
		meter.InstallationDate, meter.BuildingID,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		if strings.Contains(err.Error(), "foreign key") {
			return ErrInvalidData
		}
		return err
	}

	return nil
}

// GetMeter gets a meter by ID
func (s *PostgresStore) GetMeter(ctx context.Context, id uuid.UUID) (*models.Meter, error) {
	query := `
		SELECT id, created_at, updated_at, serial_number, installation_date, building_id
		FROM meters
		WHERE id = $1`

	meter := &models.Meter{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&meter.ID, &meter.CreatedAt, &meter.UpdatedAt, &meter.SerialNumber,
		&meter.InstallationDate, &meter.BuildingID,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return meter, err
}

// GetMeterBySerial gets a meter by serial number
func (s *PostgresStore) GetMeterBySerial(ctx context.Context, serial string) (*models.Meter, error) {
	query := `
		SELECT id, created_at, updated_at, serial_number, installation_date, building_id
		FROM meters
		WHERE serial_number = $1`

	meter := &models.Meter{}
	err := s.getDB().QueryRowContext(ctx, query, serial).Scan(
		&meter.ID, &meter.CreatedAt, &meter.UpdatedAt, &meter.SerialNumber,
		&meter.InstallationDate, &meter.BuildingID,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return meter, err
}

// UpdateMeter updates a meter
func (s *PostgresStore) UpdateMeter(ctx context.Context, meter *models.Meter) error {
	meter.UpdatedAt = time.Now()

	query := `
		UPDATE meters SET
			updated_at = $2, serial_number = $3, installation_date = $4, building_id = $5
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		meter.ID, meter.UpdatedAt, meter.SerialNumber, meter.InstallationDate, meter.BuildingID,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		if strings.Contains(err.Error(), "foreign key") {
			return ErrInvalidData
		}
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteMeter deletes a meter
func (s *PostgresStore) DeleteMeter(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx, "DELETE FROM meters WHERE id = $1", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ListMeters lists all meters
func (s *PostgresStore) ListMeters(ctx context.Context) ([]*models.Meter, error) {
	return s.listMeters(ctx, "", nil)
}

// ListMetersByOwner lists meters in buildings owned by a user
func (s *PostgresStore) ListMetersByOwner(ctx context.Context, userID uuid.UUID) ([]*models.Meter, error) {
	return s.listMeters(ctx,
		"WHERE building_id IN (SELECT id FROM buildings WHERE user_id = $1)",
		[]interface{}{userID})
}

// ListMetersByBuilding lists meters installed in a building
func (s *PostgresStore) ListMetersByBuilding(ctx context.Context, buildingID uuid.UUID) ([]*models.Meter, error) {
	return s.listMeters(ctx, "WHERE building_id = $1", []interface{}{buildingID})
}

func (s *PostgresStore) listMeters(ctx context.Context, where string, args []interface{}) ([]*models.Meter, error) {
	query := `
		SELECT id, created_at, updated_at, serial_number, installation_date, building_id
		FROM meters ` + where + `
		ORDER BY serial_number`

	rows, err := s.getDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meters []*models.Meter
	for rows.Next() {
		meter := &models.Meter{}
		err := rows.Scan(
			&meter.ID, &meter.CreatedAt, &meter.UpdatedAt, &meter.SerialNumber,
			&meter.InstallationDate, &meter.BuildingID,
		)
		if err != nil {
			return nil, err
		}
		meters = append(meters, meter)
	}

	return meters, rows.Err()
}
