package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/energy-server/energy-server/internal/models"
)

// memData holds all tables by value so a transaction can snapshot the whole
// store with a map copy.
type memData struct {
	users     map[uuid.UUID]models.User
	regions   map[uuid.UUID]models.Region
	tariffs   map[uuid.UUID]models.Tariff
	buildings map[uuid.UUID]models.Building
	meters    map[uuid.UUID]models.Meter
	records   map[uuid.UUID]models.ConsumptionRecord
}

func newMemData() *memData {
	return &memData{
		users:     make(map[uuid.UUID]models.User),
		regions:   make(map[uuid.UUID]models.Region),
		tariffs:   make(map[uuid.UUID]models.Tariff),
		buildings: make(map[uuid.UUID]models.Building),
		meters:    make(map[uuid.UUID]models.Meter),
		records:   make(map[uuid.UUID]models.ConsumptionRecord),
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.regions {
		c.regions[k] = v
	}
	for k, v := range d.tariffs {
		c.tariffs[k] = v
	}
	for k, v := range d.buildings {
		c.buildings[k] = v
	}
	for k, v := range d.meters {
		c.meters[k] = v
	}
	for k, v := range d.records {
		c.records[k] = v
	}
	return c
}

// MemoryStore is a map-backed Store used by tests and standalone runs. A
// transaction snapshots the data and holds the store lock until Commit or
// Rollback, so concurrent operations on the same store are serialized the
// way a database transaction would serialize them.
type MemoryStore struct {
	mu     sync.Mutex
	data   *memData
	parent *MemoryStore
	done   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemData()}
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// BeginTx snapshots the store. The returned Store must be finished with
// Commit or Rollback; until then all other operations block.
func (s *MemoryStore) BeginTx(ctx context.Context) (Store, error) {
	if s.parent != nil {
		return nil, errors.New("nested transactions not supported")
	}
	s.mu.Lock()
	return &MemoryStore{data: s.data.clone(), parent: s}, nil
}

// Commit publishes the transaction snapshot.
func (s *MemoryStore) Commit() error {
	if s.parent == nil || s.done {
		return nil
	}
	s.done = true
	s.parent.data = s.data
	s.parent.mu.Unlock()
	return nil
}

// Rollback discards the transaction snapshot.
func (s *MemoryStore) Rollback() error {
	if s.parent == nil || s.done {
		return nil
	}
	s.done = true
	s.parent.mu.Unlock()
	return nil
}

// lock acquires the store lock for a single operation. Inside a transaction
// the lock is already held by BeginTx.
func (s *MemoryStore) lock() func() {
	if s.parent != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// ========== User Methods ==========

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	defer s.lock()()
	for _, u := range s.data.users {
		if u.Login == user.Login {
			return ErrDuplicateKey
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.data.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	defer s.lock()()
	user, ok := s.data.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStore) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	defer s.lock()()
	for _, user := range s.data.users {
		if user.Login == login {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateUser(ctx context.Context, user *models.User) error {
	defer s.lock()()
	if _, ok := s.data.users[user.ID]; !ok {
		return ErrNotFound
	}
	for id, u := range s.data.users {
		if u.Login == user.Login && id != user.ID {
			return ErrDuplicateKey
		}
	}
	user.UpdatedAt = time.Now()
	s.data.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	defer s.lock()()
	if _, ok := s.data.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.data.users, id)
	return nil
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	defer s.lock()()
	users := make([]*models.User, 0, len(s.data.users))
	for _, user := range s.data.users {
		u := user
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Login < users[j].Login })
	return users, nil
}

// ========== Region Methods ==========

func (s *MemoryStore) CreateRegion(ctx context.Context, region *models.Region) error {
	defer s.lock()()
	if region.ID == uuid.Nil {
		region.ID = uuid.New()
	}
	now := time.Now()
	region.CreatedAt = now
	region.UpdatedAt = now
	s.data.regions[region.ID] = *region
	return nil
}

func (s *MemoryStore) GetRegion(ctx context.Context, id uuid.UUID) (*models.Region, error) {
	defer s.lock()()
	region, ok := s.data.regions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &region, nil
}

func (s *MemoryStore) UpdateRegion(ctx context.Context, region *models.Region) error {
	defer s.lock()()
	if _, ok := s.data.regions[region.ID]; !ok {
		return ErrNotFound
	}
	region.UpdatedAt = time.Now()
	s.data.regions[region.ID] = *region
	return nil
}

func (s *MemoryStore) DeleteRegion(ctx context.Context, id uuid.UUID) error {
	defer s.lock()()
	if _, ok := s.data.regions[id]; !ok {
		return ErrNotFound
	}
	delete(s.data.regions, id)
	return nil
}

func (s *MemoryStore) ListRegions(ctx context.Context) ([]*models.Region, error) {
	defer s.lock()()
	regions := make([]*models.Region, 0, len(s.data.regions))
	for _, region := range s.data.regions {
		r := region
		regions = append(regions, &r)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Name < regions[j].Name })
	return regions, nil
}

// ========== Tariff Methods ==========

func (s *MemoryStore) CreateTariff(ctx context.Context, tariff *models.Tariff) error {
	defer s.lock()()
	if tariff.ID == uuid.Nil {
		tariff.ID = uuid.New()
	}
	now := time.Now()
	tariff.CreatedAt = now
	tariff.UpdatedAt = now
	s.data.tariffs[tariff.ID] = *tariff
	return nil
}

func (s *MemoryStore) GetTariff(ctx context.Context, id uuid.UUID) (*models.Tariff, error) {
	defer s.lock()()
	tariff, ok := s.data.tariffs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &tariff, nil
}

func (s *MemoryStore) UpdateTariff(ctx context.Context, tariff *models.Tariff) error {
	defer s.lock()()
	if _, ok := s.data.tariffs[tariff.ID]; !ok {
		return ErrNotFound
	}
	tariff.UpdatedAt = time.Now()
	s.data.tariffs[tariff.ID] = *tariff
	return nil
}

func (s *MemoryStore) DeleteTariff(ctx context.Context, id uuid.UUID) error {
	defer s.lock()()
	if _, ok := s.data.tariffs[id]; !ok {
		return ErrNotFound
	}
	delete(s.data.tariffs, id)
	return nil
}

func (s *MemoryStore) ListTariffs(ctx context.Context) ([]*models.Tariff, error) {
	defer s.lock()()
	tariffs := make([]*models.Tariff, 0, len(s.data.tariffs))
	for _, tariff := range s.data.tariffs {
		t := tariff
		tariffs = append(tariffs, &t)
	}
	sort.Slice(tariffs, func(i, j int) bool {
		if tariffs[i].ValidFrom.Equal(tariffs[j].ValidFrom) {
			return tariffs[i].Name < tariffs[j].Name
		}
		return tariffs[i].ValidFrom.Before(tariffs[j].ValidFrom)
	})
	return tariffs, nil
}

// ========== Building Methods ==========

func (s *MemoryStore) CreateBuilding(ctx context.Context, building *models.Building) error {
	defer s.lock()()
	if err := s.checkBuildingRefs(building); err != nil {
		return err
	}
	if building.ID == uuid.Nil {
		building.ID = uuid.New()
	}
	now := time.Now()
	building.CreatedAt = now
	building.UpdatedAt = now
	s.data.buildings[building.ID] = *building
	return nil
}

func (s *MemoryStore) checkBuildingRefs(building *models.Building) error {
	if _, ok := s.data.regions[building.RegionID]; !ok {
		return ErrInvalidData
	}
	if _, ok := s.data.tariffs[building.TariffID]; !ok {
		return ErrInvalidData
	}
	if _, ok := s.data.users[building.UserID]; !ok {
		return ErrInvalidData
	}
	return nil
}

func (s *MemoryStore) GetBuilding(ctx context.Context, id uuid.UUID) (*models.Building, error) {
	defer s.lock()()
	building, ok := s.data.buildings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &building, nil
}

func (s *MemoryStore) UpdateBuilding(ctx context.Context, building *models.Building) error {
	defer s.lock()()
	if _, ok := s.data.buildings[building.ID]; !ok {
		return ErrNotFound
	}
	if err := s.checkBuildingRefs(building); err != nil {
		return err
	}
	building.UpdatedAt = time.Now()
	s.data.buildings[building.ID] = *building
	return nil
}

func (s *MemoryStore) DeleteBuilding(ctx context.Context, id uuid.UUID) error {
	defer s.lock()()
	if _, ok := s.data.buildings[id]; !ok {
		return ErrNotFound
	}
	delete(s.data.buildings, id)
	return nil
}

func (s *MemoryStore) ListBuildings(ctx context.Context) ([]*models.Building, error) {
	return s.listBuildings(func(models.Building) bool { return true })
}

func (s *MemoryStore) ListBuildingsByOwner(ctx context.Context, userID uuid.UUID) ([]*models.Building, error) {
	return s.listBuildings(func(b models.Building) bool { return b.UserID == userID })
}

func (s *MemoryStore) ListBuildingsByRegion(ctx context.Context, regionID uuid.UUID) ([]*models.Building, error) {
	return s.listBuildings(func(b models.Building) bool { return b.RegionID == regionID })
}

func (s *MemoryStore) listBuildings(keep func(models.Building) bool) ([]*models.Building, error) {
	defer s.lock()()
	var buildings []*models.Building
	for _, building := range s.data.buildings {
		if keep(building) {
			b := building
			buildings = append(buildings, &b)
		}
	}
	sort.Slice(buildings, func(i, j int) bool { return buildings[i].Name < buildings[j].Name })
	return buildings, nil
}

// ========== Meter Methods ==========

func (s *MemoryStore) CreateMeter(ctx context.Context, meter *models.Meter) error {
	defer s.lock()()
	for _, m := range s.data.meters {
		if m.SerialNumber == meter.SerialNumber {
			return ErrDuplicateKey
		}
	}
	if _, ok := s.data.buildings[meter.BuildingID]; !ok {
		return ErrInvalidData
	}
	if meter.ID == uuid.Nil {
		meter.ID = uuid.New()
	}
	now := time.Now()
	meter.CreatedAt = now
	meter.UpdatedAt = now
	s.data.meters[meter.ID] = *meter
	return nil
}

func (s *MemoryStore) GetMeter(ctx context.Context, id uuid.UUID) (*models.Meter, error) {
	defer s.lock()()
	meter, ok := s.data.meters[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &meter, nil
}

func (s *MemoryStore) GetMeterBySerial(ctx context.Context, serial string) (*models.Meter, error) {
	defer s.lock()()
	for _, meter := range s.data.meters {
		if meter.SerialNumber == serial {
			m := meter
			return &m, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateMeter(ctx context.Context, meter *models.Meter) error {
	defer s.lock()()
	if _, ok := s.data.meters[meter.ID]; !ok {
		return ErrNotFound
	}
	for id, m := range s.data.meters {
		if m.SerialNumber == meter.SerialNumber && id != meter.ID {
			return ErrDuplicateKey
		}
	}
	if _, ok := s.data.buildings[meter.BuildingID]; !ok {
		return ErrInvalidData
	}
	meter.UpdatedAt = time.Now()
	s.data.meters[meter.ID] = *meter
	return nil
}

func (s *MemoryStore) DeleteMeter(ctx context.Context, id uuid.UUID) error {
	defer s.lock()()
	if _, ok := s.data.meters[id]; !ok {
		return ErrNotFound
	}
	delete(s.data.meters, id)
	return nil
}

func (s *MemoryStore) ListMeters(ctx context.Context) ([]*models.Meter, error) {
	return s.listMeters(func(models.Meter) bool { return true })
}

func (s *MemoryStore) ListMetersByOwner(ctx context.Context, userID uuid.UUID) ([]*models.Meter, error) {
	defer s.lock()()
	owned := make(map[uuid.UUID]bool)
	for id, building := range s.data.buildings {
		if building.UserID == userID {
			owned[id] = true
		}
	}
	var meters []*models.Meter
	for _, meter := range s.data.meters {
		if owned[meter.BuildingID] {
			m := meter
			meters = append(meters, &m)
		}
	}
	sort.Slice(meters, func(i, j int) bool { return meters[i].SerialNumber < meters[j].SerialNumber })
	return meters, nil
}

func (s *MemoryStore) ListMetersByBuilding(ctx context.Context, buildingID uuid.UUID) ([]*models.Meter, error) {
	return s.listMeters(func(m models.Meter) bool { return m.BuildingID == buildingID })
}

func (s *MemoryStore) listMeters(keep func(models.Meter) bool) ([]*models.Meter, error) {
	defer s.lock()()
	var meters []*models.Meter
	for _, meter := range s.data.meters {
		if keep(meter) {
			m := meter
			meters = append(meters, &m)
		}
	}
	sort.Slice(meters, func(i, j int) bool { return meters[i].SerialNumber < meters[j].SerialNumber })
	return meters, nil
}

// ========== Consumption Record Methods ==========

func (s *MemoryStore) CreateConsumptionRecord(ctx context.Context, record *models.ConsumptionRecord) error {
	defer s.lock()()
	if _, ok := s.data.meters[record.MeterID]; !ok {
		return ErrInvalidData
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now
	s.data.records[record.ID] = *record
	return nil
}

func (s *MemoryStore) GetConsumptionRecord(ctx context.Context, id uuid.UUID) (*models.ConsumptionRecord, error) {
	defer s.lock()()
	record, ok := s.data.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

func (s *MemoryStore) UpdateConsumptionRecord(ctx context.Context, record *models.ConsumptionRecord) error {
	defer s.lock()()
	if _, ok := s.data.records[record.ID]; !ok {
		return ErrNotFound
	}
	if _, ok := s.data.meters[record.MeterID]; !ok {
		return ErrInvalidData
	}
	record.UpdatedAt = time.Now()
	s.data.records[record.ID] = *record
	return nil
}

func (s *MemoryStore) DeleteConsumptionRecord(ctx context.Context, id uuid.UUID) error {
	defer s.lock()()
	if _, ok := s.data.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.data.records, id)
	return nil
}

func (s *MemoryStore) ListConsumptionRecords(ctx context.Context) ([]*models.ConsumptionRecord, error) {
	return s.listRecords(func(models.ConsumptionRecord) bool { return true })
}

func (s *MemoryStore) ListConsumptionRecordsByOwner(ctx context.Context, userID uuid.UUID) ([]*models.ConsumptionRecord, error) {
	defer s.lock()()
	ownedBuildings := make(map[uuid.UUID]bool)
	for id, building := range s.data.buildings {
		if building.UserID == userID {
			ownedBuildings[id] = true
		}
	}
	ownedMeters := make(map[uuid.UUID]bool)
	for id, meter := range s.data.meters {
		if ownedBuildings[meter.BuildingID] {
			ownedMeters[id] = true
		}
	}
	var records []*models.ConsumptionRecord
	for _, record := range s.data.records {
		if ownedMeters[record.MeterID] {
			r := record
			records = append(records, &r)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].PeriodStart.Before(records[j].PeriodStart) })
	return records, nil
}

func (s *MemoryStore) ListConsumptionRecordsByMeter(ctx context.Context, meterID uuid.UUID) ([]*models.ConsumptionRecord, error) {
	return s.listRecords(func(r models.ConsumptionRecord) bool { return r.MeterID == meterID })
}

func (s *MemoryStore) listRecords(keep func(models.ConsumptionRecord) bool) ([]*models.ConsumptionRecord, error) {
	defer s.lock()()
	var records []*models.ConsumptionRecord
	for _, record := range s.data.records {
		if keep(record) {
			r := record
			records = append(records, &r)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].PeriodStart.Before(records[j].PeriodStart) })
	return records, nil
}
