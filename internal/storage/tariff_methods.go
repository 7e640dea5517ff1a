package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/models"
)

// ========== Tariff Methods ==========

// CreateTariff creates a new tariff
func (s *PostgresStore) CreateTariff(ctx context.Context, tariff *models.Tariff) error {
	if tariff.ID == uuid.Nil {
		tariff.ID = uuid.New()
	}

	now := time.Now()
	tariff.CreatedAt = now
	tariff.UpdatedAt = now

	query := `
		INSERT INTO tariffs (id, created_at, updated_at, name, rate_per_kwh, valid_from, valid_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.getDB().ExecContext(ctx, query,
		tariff.ID, tariff.CreatedAt, tariff.UpdatedAt, tariff.Name,
		tariff.RatePerKWh, tariff.ValidFrom, tariff.ValidTo,
	)

	return err
}

// GetTariff gets a tariff by ID
func (s *PostgresStore) GetTariff(ctx context.Context, id uuid.UUID) (*models.Tariff, error) {
	query := `
		SELECT id, created_at, updated_at, name, rate_per_kwh, valid_from, valid_to
		FROM tariffs
		WHERE id = $1`

	tariff := &models.Tariff{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&tariff.ID, &tariff.CreatedAt, &tariff.UpdatedAt, &tariff.Name,
		&tariff.RatePerKWh, &tariff.ValidFrom, &tariff.ValidTo,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return tariff, err
}

// UpdateTariff updates a tariff
func (s *PostgresStore) UpdateTariff(ctx context.Context, tariff *models.Tariff) error {
	tariff.UpdatedAt = time.Now()

	query := `
		UPDATE tariffs SET
			updated_at = $2, name = $3, rate_per_kwh = $4, valid_from = $5, valid_to = $6
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		tariff.ID, tariff.UpdatedAt, tariff.Name, tariff.RatePerKWh,
		tariff.ValidFrom, tariff.ValidTo,
	)

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

// DeleteTariff deletes a tariff
func (s *PostgresStore) DeleteTariff(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx, "DELETE FROM tariffs WHERE id = $1", id)
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

// ListTariffs lists tariffs
func (s *PostgresStore) ListTariffs(ctx context.Context) ([]*models.Tariff, error) {
	query := `
		SELECT id, created_at, updated_at, name, rate_per_kwh, valid_from, valid_to
		FROM tariffs
		ORDER BY valid_from, name`

	rows, err := s.getDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tariffs []*models.Tariff
	for rows.Next() {
		tariff := &models.Tariff{}
		err := rows.Scan(
			&tariff.ID, &tariff.CreatedAt, &tariff.UpdatedAt, &tariff.Name,
			&tariff.RatePerKWh, &tariff.ValidFrom, &tariff.ValidTo,
		)
		if err != nil {
			return nil, err
		}
		tariffs = append(tariffs, tariff)
	}

	return tariffs, rows.Err()
}
