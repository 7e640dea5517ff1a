package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/models"
)

// ========== Consumption Record Methods ==========

// CreateConsumptionRecord creates a new consumption record
func (s *PostgresStore) CreateConsumptionRecord(ctx context.Context, record *models.ConsumptionRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	query := `
		INSERT INTO consumption_records (id, created_at, updated_at, meter_id, period_start, period_end, consumption_kwh)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.getDB().ExecContext(ctx, query,
		record.ID, record.CreatedAt, record.UpdatedAt, record.MeterID,
		record.PeriodStart, record.PeriodEnd, record.ConsumptionKWh,
	)

	if err != nil {
		if strings.Contains(err.Error(), "foreign key") {
			return ErrInvalidData
		}
		return err
	}

	return nil
}

// GetConsumptionRecord gets a consumption record by ID
func (s *PostgresStore) GetConsumptionRecord(ctx context.Context, id uuid.UUID) (*models.ConsumptionRecord, error) {
	query := `
		SELECT id, created_at, updated_at, meter_id, period_start, period_end, consumption_kwh
		FROM consumption_records
		WHERE id = $1`

	record := &models.ConsumptionRecord{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&record.ID, &record.CreatedAt, &record.UpdatedAt, &record.MeterID,
		&record.PeriodStart, &record.PeriodEnd, &record.ConsumptionKWh,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return record, err
}

// UpdateConsumptionRecord updates a consumption record
func (s *PostgresStore) UpdateConsumptionRecord(ctx context.Context, record *models.ConsumptionRecord) error {
	record.UpdatedAt = time.Now()

	query := `
		UPDATE consumption_records SET
			updated_at = $2, meter_id = $3, period_start = $4, period_end = $5, consumption_kwh = $6
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		record.ID, record.UpdatedAt, record.MeterID, record.PeriodStart,
		record.PeriodEnd, record.ConsumptionKWh,
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

// DeleteConsumptionRecord deletes a consumption record
func (s *PostgresStore) DeleteConsumptionRecord(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx, "DELETE FROM consumption_records WHERE id = $1", id)
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

// ListConsumptionRecords lists all consumption records
func (s *PostgresStore) ListConsumptionRecords(ctx context.Context) ([]*models.ConsumptionRecord, error) {
	return s.listRecords(ctx, "", nil)
}

// ListConsumptionRecordsByOwner lists records for meters in buildings owned by a user
func (s *PostgresStore) ListConsumptionRecordsByOwner(ctx context.Context, userID uuid.UUID) ([]*models.ConsumptionRecord, error) {
	return s.listRecords(ctx, `
		WHERE meter_id IN (
			SELECT m.id FROM meters m
			JOIN buildings b ON b.id = m.building_id
			WHERE b.user_id = $1
		)`, []interface{}{userID})
}

// ListConsumptionRecordsByMeter lists records produced by a meter
func (s *PostgresStore) ListConsumptionRecordsByMeter(ctx context.Context, meterID uuid.UUID) ([]*models.ConsumptionRecord, error) {
	return s.listRecords(ctx, "WHERE meter_id = $1", []interface{}{meterID})
}

func (s *PostgresStore) listRecords(ctx context.Context, where string, args []interface{}) ([]*models.ConsumptionRecord, error) {
	query := `
		SELECT id, created_at, updated_at, meter_id, period_start, period_end, consumption_kwh
		FROM consumption_records ` + where + `
		ORDER BY period_start`

	rows, err := s.getDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.ConsumptionRecord
	for rows.Next() {
		record := &models.ConsumptionRecord{}
		err := rows.Scan(
			&record.ID, &record.CreatedAt, &record.UpdatedAt, &record.MeterID,
			&record.PeriodStart, &record.PeriodEnd, &record.ConsumptionKWh,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
