package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/models"
)

// ========== Building Methods ==========

// CreateBuilding creates a new building
func (s *PostgresStore) CreateBuilding(ctx context.Context, building *models.Building) error {
	if building.ID == uuid.Nil {
		building.ID = uuid.New()
	}

	now := time.Now()
	building.CreatedAt = now
	building.UpdatedAt = now

	query := `
		INSERT INTO buildings (id, created_at, updated_at, name, address, type, region_id, tariff_id, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.getDB().ExecContext(ctx, query,
		building.ID, building.CreatedAt, building.UpdatedAt, building.Name,
		building.Address, building.Type, building.RegionID, building.TariffID, building.UserID,
	)

	if err != nil {
		if strings.Contains(err.Error(), "foreign key") {
			return ErrInvalidData
		}
		return err
	}

	return nil
}

// GetBuilding gets a building by ID
func (s *PostgresStore) GetBuilding(ctx context.Context, id uuid.UUID) (*models.Building, error) {
	query := `
		SELECT id, created_at, updated_at, name, address, type, region_id, tariff_id, user_id
		FROM buildings
		WHERE id = $1`

	building := &models.Building{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&building.ID, &building.CreatedAt, &building.UpdatedAt, &building.Name,
		&building.Address, &building.Type, &building.RegionID, &building.TariffID, &building.UserID,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return building, err
}

// UpdateBuilding updates a building
func (s *PostgresStore) UpdateBuilding(ctx context.Context, building *models.Building) error {
	building.UpdatedAt = time.Now()

	query := `
		UPDATE buildings SET
			updated_at = $2, name = $3, address = $4, type = $5,
			region_id = $6, tariff_id = $7, user_id = $8
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		building.ID, building.UpdatedAt, building.Name, building.Address,
		building.Type, building.RegionID, building.TariffID, building.UserID,
	)

	if err != nil {
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

// DeleteBuilding deletes a building
func (s *PostgresStore) DeleteBuilding(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx, "DELETE FROM buildings WHERE id = $1", id)
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

// ListBuildings lists all buildings
func (s *PostgresStore) ListBuildings(ctx context.Context) ([]*models.Building, error) {
	return s.listBuildings(ctx, "", nil)
}

// ListBuildingsByOwner lists buildings owned by a user
func (s *PostgresStore) ListBuildingsByOwner(ctx context.Context, userID uuid.UUID) ([]*models.Building, error) {
	return s.listBuildings(ctx, "WHERE user_id = $1", []interface{}{userID})
}

// ListBuildingsByRegion lists buildings in a region
func (s *PostgresStore) ListBuildingsByRegion(ctx context.Context, regionID uuid.UUID) ([]*models.Building, error) {
	return s.listBuildings(ctx, "WHERE region_id = $1", []interface{}{regionID})
}

func (s *PostgresStore) listBuildings(ctx context.Context, where string, args []interface{}) ([]*models.Building, error) {
	query := `
		SELECT id, created_at, updated_at, name, address, type, region_id, tariff_id, user_id
		FROM buildings ` + where + `
		ORDER BY name`

	rows, err := s.getDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buildings []*models.Building
	for rows.Next() {
		building := &models.Building{}
		err := rows.Scan(
			&building.ID, &building.CreatedAt, &building.UpdatedAt, &building.Name,
			&building.Address, &building.Type, &building.RegionID, &building.TariffID, &building.UserID,
		)
		if err != nil {
			return nil, err
		}
		buildings = append(buildings, building)
	}

	return buildings, rows.Err()
}
