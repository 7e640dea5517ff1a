package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/models"
)

// ========== Region Methods ==========

// CreateRegion creates a new region
func (s *PostgresStore) CreateRegion(ctx context.Context, region *models.Region) error {
	if region.ID == uuid.Nil {
		region.ID = uuid.New()
	}

	now := time.Now()
	region.CreatedAt = now
	region.UpdatedAt = now

	query := `
		INSERT INTO regions (id, created_at, updated_at, name, timezone)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.getDB().ExecContext(ctx, query,
		region.ID, region.CreatedAt, region.UpdatedAt, region.Name, region.Timezone,
	)

	return err
}

// GetRegion gets a region by ID
func (s *PostgresStore) GetRegion(ctx context.Context, id uuid.UUID) (*models.Region, error) {
	query := `
		SELECT id, created_at, updated_at, name, timezone
		FROM regions
		WHERE id = $1`

	region := &models.Region{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&region.ID, &region.CreatedAt, &region.UpdatedAt, &region.Name, &region.Timezone,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return region, err
}

// UpdateRegion updates a region
func (s *PostgresStore) UpdateRegion(ctx context.Context, region *models.Region) error {
	region.UpdatedAt = time.Now()

	query := `
		UPDATE regions SET
			updated_at = $2, name = $3, timezone = $4
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		region.ID, region.UpdatedAt, region.Name, region.Timezone,
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

// DeleteRegion deletes a region
func (s *PostgresStore) DeleteRegion(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx, "DELETE FROM regions WHERE id = $1", id)
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

// ListRegions lists regions
func (s *PostgresStore) ListRegions(ctx context.Context) ([]*models.Region, error) {
	query := `
		SELECT id, created_at, updated_at, name, timezone
		FROM regions
		ORDER BY name`

	rows, err := s.getDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regions []*models.Region
	for rows.Next() {
		region := &models.Region{}
		err := rows.Scan(
			&region.ID, &region.CreatedAt, &region.UpdatedAt, &region.Name, &region.Timezone,
		)
		if err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}

	return regions, rows.Err()
}
