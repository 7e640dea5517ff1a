package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/models"
)

// Common errors
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidData  = errors.New("invalid data")
)

// Store defines the storage interface. List methods return full result sets;
// row visibility is the policy layer's concern, and owner-scoped variants
// exist for the tenant filter.
type Store interface {
	// Transaction support
	BeginTx(ctx context.Context) (Store, error)
	Commit() error
	Rollback() error

	// User methods
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context) ([]*models.User, error)

	// Region methods
	CreateRegion(ctx context.Context, region *models.Region) error
	GetRegion(ctx context.Context, id uuid.UUID) (*models.Region, error)
	UpdateRegion(ctx context.Context, region *models.Region) error
	DeleteRegion(ctx context.Context, id uuid.UUID) error
	ListRegions(ctx context.Context) ([]*models.Region, error)

	// Tariff methods
	CreateTariff(ctx context.Context, tariff *models.Tariff) error
	GetTariff(ctx context.Context, id uuid.UUID) (*models.Tariff, error)
	UpdateTariff(ctx context.Context, tariff *models.Tariff) error
	DeleteTariff(ctx context.Context, id uuid.UUID) error
	ListTariffs(ctx context.Context) ([]*models.Tariff, error)

	// Building methods
	CreateBuilding(ctx context.Context, building *models.Building) error
	GetBuilding(ctx context.Context, id uuid.UUID) (*models.Building, error)
	UpdateBuilding(ctx context.Context, building *models.Building) error
	DeleteBuilding(ctx context.Context, id uuid.UUID) error
	ListBuildings(ctx context.Context) ([]*models.Building, error)
	ListBuildingsByOwner(ctx context.Context, userID uuid.UUID) ([]*models.Building, error)
	ListBuildingsByRegion(ctx context.Context, regionID uuid.UUID) ([]*models.Building, error)

	// Meter methods
	CreateMeter(ctx context.Context, meter *models.Meter) error
	GetMeter(ctx context.Context, id uuid.UUID) (*models.Meter, error)
	GetMeterBySerial(ctx context.Context, serial string) (*models.Meter, error)
	UpdateMeter(ctx context.Context, meter *models.Meter) error
	DeleteMeter(ctx context.Context, id uuid.UUID) error
	ListMeters(ctx context.Context) ([]*models.Meter, error)
	ListMetersByOwner(ctx context.Context, userID uuid.UUID) ([]*models.Meter, error)
	ListMetersByBuilding(ctx context.Context, buildingID uuid.UUID) ([]*models.Meter, error)

	// Consumption record methods
	CreateConsumptionRecord(ctx context.Context, record *models.ConsumptionRecord) error
	GetConsumptionRecord(ctx context.Context, id uuid.UUID) (*models.ConsumptionRecord, error)
	UpdateConsumptionRecord(ctx context.Context, record *models.ConsumptionRecord) error
	DeleteConsumptionRecord(ctx context.Context, id uuid.UUID) error
	ListConsumptionRecords(ctx context.Context) ([]*models.ConsumptionRecord, error)
	ListConsumptionRecordsByOwner(ctx context.Context, userID uuid.UUID) ([]*models.ConsumptionRecord, error)
	ListConsumptionRecordsByMeter(ctx context.Context, meterID uuid.UUID) ([]*models.ConsumptionRecord, error)

	// Close the store
	Close() error
}
