package api

import (
	"context"
	"sync"
	"time"

	"github.com/tkesici/greenhouse-manager/internal/models"
	"github.com/tkesici/greenhouse-manager/internal/repository"
)

// mockUserStore is an in-memory credential store for handler tests.
type mockUserStore struct {
	mutex  sync.Mutex
	users  map[string]*models.User
	nextID int64
	errors map[string]error
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:  make(map[string]*models.User),
		nextID: 1,
		errors: make(map[string]error),
	}
}

func (m *mockUserStore) SetError(method string, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.errors[method] = err
}

func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.errors["GetByUsername"]; err != nil {
		return nil, err
	}

	user, exists := m.users[username]
	if !exists {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *mockUserStore) Create(ctx context.Context, user *models.User) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.errors["Create"]; err != nil {
		return err
	}

	if _, exists := m.users[user.Username]; exists {
		return repository.ErrConflict
	}

	user.ID = m.nextID
	user.CreatedAt = time.Now()
	m.nextID++

	copied := *user
	m.users[user.Username] = &copied
	return nil
}

// mockTenantStore auto-assigns ids like a serial column.
type mockTenantStore struct {
	mutex   sync.Mutex
	tenants map[int64]*models.Tenant
	nextID  int64
	errors  map[string]error
}

func newMockTenantStore() *mockTenantStore {
	return &mockTenantStore{
		tenants: make(map[int64]*models.Tenant),
		nextID:  1,
		errors:  make(map[string]error),
	}
}

func (m *mockTenantStore) AddTenant(tenant *models.Tenant) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.tenants[tenant.ID] = tenant
	if tenant.ID >= m.nextID {
		m.nextID = tenant.ID + 1
	}
}

func (m *mockTenantStore) Create(ctx context.Context, tenant *models.Tenant) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.errors["Create"]; err != nil {
		return err
	}

	tenant.ID = m.nextID
	tenant.CreatedAt = time.Now()
	m.nextID++

	copied := *tenant
	m.tenants[tenant.ID] = &copied
	return nil
}

func (m *mockTenantStore) Exists(ctx context.Context, id int64) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.errors["Exists"]; err != nil {
		return false, err
	}

	_, exists := m.tenants[id]
	return exists, nil
}

// mockGreenhouseStore satisfies both GreenhouseLister and GreenhouseStore.
type mockGreenhouseStore struct {
	mutex       sync.Mutex
	greenhouses map[int64]*models.Greenhouse
	errors      map[string]error
}

func newMockGreenhouseStore() *mockGreenhouseStore {
	return &mockGreenhouseStore{
		greenhouses: make(map[int64]*models.Greenhouse),
		errors:      make(map[string]error),
	}
}

func (m *mockGreenhouseStore) AddGreenhouse(gh models.Greenhouse) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	copied := gh
	m.greenhouses[gh.ID] = &copied
}

func (m *mockGreenhouseStore) ListByTenant(ctx context.Context, tenantID int64) ([]models.Greenhouse, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.errors["ListByTenant"]; err != nil {
		return nil, err
	}

	var result []models.Greenhouse
	for _, gh := range m.greenhouses {
		if gh.TenantID == tenantID {
			result = append(result, *gh)
		}
	}
	return result, nil
}

func (m *mockGreenhouseStore) Exists(ctx context.Context, id int64) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.errors["Exists"]; err != nil {
		return false, err
	}

	_, exists := m.greenhouses[id]
	return exists, nil
}

// mockTelemetryStore keeps telemetry in memory. Latest readers scan for the
// maximum recorded_at rather than relying on insertion order, matching the
// contract the SQL queries implement.
type mockTelemetryStore struct {
	mutex    sync.Mutex
	readings map[int64][]models.SensorReading
	statuses map[models.ActuatorKind]map[int64][]models.ActuatorStatus
	errors   map[string]error
	clock    time.Time
}

func newMockTelemetryStore() *mockTelemetryStore {
	return &mockTelemetryStore{
		readings: make(map[int64][]models.SensorReading),
		statuses: map[models.ActuatorKind]map[int64][]models.ActuatorStatus{
			models.ActuatorWindow:     make(map[int64][]models.ActuatorStatus),
			models.ActuatorIrrigation: make(map[int64][]models.ActuatorStatus),
		},
		errors: make(map[string]error),
		clock:  time.Now(),
	}
}

func (m *mockTelemetryStore) SetError(method string, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.errors[method] = err
}

// SeedReading inserts a reading with an explicit timestamp.
func (m *mockTelemetryStore) SeedReading(reading models.SensorReading) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.readings[reading.GreenhouseID] = append(m.readings[reading.GreenhouseID], reading)
}

// SeedStatus inserts an actuator status with an explicit timestamp.
func (m *mockTelemetryStore) SeedStatus(kind models.ActuatorKind, status models.ActuatorStatus) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.statuses[kind][status.GreenhouseID] = append(m.statuses[kind][status.GreenhouseID], status)
}

func (m *mockTelemetryStore) tick() time.Time {
	m.clock = m.clock.Add(time.Millisecond)
	return m.clock
}

func (m *mockTelemetryStore) LatestSensorReading(ctx context.Context, greenhouseID int64) (*models.SensorReading, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.errors["LatestSensorReading"]; err != nil {
		return nil, err
	}

	rows := m.readings[greenhouseID]
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}

	latest := rows[0]
	for _, row := range rows[1:] {
		if row.RecordedAt.After(latest.RecordedAt) {
			latest = row
		}
	}
	return &latest, nil
}

func (m *mockTelemetryStore) InsertSensorReading(ctx context.Context, reading *models.SensorReading) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.errors["InsertSensorReading"]; err != nil {
		return err
	}

	reading.RecordedAt = m.tick()
	m.readings[reading.GreenhouseID] = append(m.readings[reading.GreenhouseID], *reading)
	return nil
}

func (m *mockTelemetryStore) SensorHistory(ctx context.Context, greenhouseID int64) ([]models.SensorReading, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.errors["SensorHistory"]; err != nil {
		return nil, err
	}

	rows := append([]models.SensorReading(nil), m.readings[greenhouseID]...)
	sortReadingsAscending(rows)
	return rows, nil
}

func (m *mockTelemetryStore) LatestActuatorStatus(ctx context.Context, kind models.ActuatorKind, greenhouseID int64) (*models.ActuatorStatus, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.errors["LatestActuatorStatus"]; err != nil {
		return nil, err
	}

	rows := m.statuses[kind][greenhouseID]
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}

	latest := rows[0]
	for _, row := range rows[1:] {
		if row.RecordedAt.After(latest.RecordedAt) {
			latest = row
		}
	}
	return &latest, nil
}

func (m *mockTelemetryStore) InsertActuatorStatus(ctx context.Context, kind models.ActuatorKind, status *models.ActuatorStatus) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.errors["InsertActuatorStatus"]; err != nil {
		return err
	}

	status.RecordedAt = m.tick()
	m.statuses[kind][status.GreenhouseID] = append(m.statuses[kind][status.GreenhouseID], *status)
	return nil
}

func (m *mockTelemetryStore) ActuatorHistory(ctx context.Context, kind models.ActuatorKind, greenhouseID int64) ([]models.ActuatorStatus, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.errors["ActuatorHistory"]; err != nil {
		return nil, err
	}

	rows := append([]models.ActuatorStatus(nil), m.statuses[kind][greenhouseID]...)
	sortStatusesAscending(rows)
	return rows, nil
}

func sortReadingsAscending(rows []models.SensorReading) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j].RecordedAt.Before(rows[j-1].RecordedAt); j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}

func sortStatusesAscending(rows []models.ActuatorStatus) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j].RecordedAt.Before(rows[j-1].RecordedAt); j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}

// fakeGate allows exactly the pairs registered in its set.
type fakeGate struct {
	mutex sync.Mutex
	owned map[[2]int64]bool
}

func newFakeGate() *fakeGate {
	return &fakeGate{owned: make(map[[2]int64]bool)}
}

func (f *fakeGate) Allow(tenantID, greenhouseID int64) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.owned[[2]int64{tenantID, greenhouseID}] = true
}

func (f *fakeGate) Allowed(ctx context.Context, tenantID, greenhouseID int64) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.owned[[2]int64{tenantID, greenhouseID}]
}
