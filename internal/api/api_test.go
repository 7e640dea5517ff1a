package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energy-server/energy-server/internal/config"
	"github.com/energy-server/energy-server/internal/models"
	"github.com/energy-server/energy-server/internal/storage"
	"github.com/energy-server/energy-server/pkg/crypto"
)

type testEnv struct {
	server *RESTServer
	store  *storage.MemoryStore

	adminToken  string
	tenantToken string

	tenantID uuid.UUID
	building *models.Building
	meter    *models.Meter
	record   *models.ConsumptionRecord
	foreign  *models.Building
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Name: "energy-server", Version: "test"},
		JWT: config.JWTConfig{
			Secret:          "test-secret",
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()
	env := &testEnv{store: store, server: NewRESTServer(testConfig(), store)}

	mkUser := func(login, password string, role models.Role) *models.User {
		hash, err := crypto.HashPassword(password)
		require.NoError(t, err)
		user := &models.User{Login: login, Role: role, PasswordHash: hash}
		require.NoError(t, store.CreateUser(ctx, user))
		return user
	}

	admin := mkUser("admin", "admin-pass", models.RoleAdmin)
	tenant := mkUser("tenant1", "tenant-pass", models.RoleTenant)
	other := mkUser("tenant2", "tenant-pass", models.RoleTenant)
	env.tenantID = tenant.ID
	_ = admin

	region := &models.Region{Name: "North", Timezone: "Europe/Berlin"}
	require.NoError(t, store.CreateRegion(ctx, region))
	tariff := &models.Tariff{Name: "Standard", RatePerKWh: 5.5, ValidFrom: time.Now()}
	require.NoError(t, store.CreateTariff(ctx, tariff))

	env.building = &models.Building{
		Name: "Block A", Address: "Main St 1", Type: models.BuildingResidential,
		RegionID: region.ID, TariffID: tariff.ID, UserID: tenant.ID,
	}
	require.NoError(t, store.CreateBuilding(ctx, env.building))

	env.foreign = &models.Building{
		Name: "Block B", Address: "Main St 2", Type: models.BuildingResidential,
		RegionID: region.ID, TariffID: tariff.ID, UserID: other.ID,
	}
	require.NoError(t, store.CreateBuilding(ctx, env.foreign))

	env.meter = &models.Meter{SerialNumber: "SN-1", InstallationDate: time.Now(), BuildingID: env.building.ID}
	require.NoError(t, store.CreateMeter(ctx, env.meter))

	env.record = &models.ConsumptionRecord{
		MeterID: env.meter.ID, PeriodStart: time.Now(), PeriodEnd: time.Now(), ConsumptionKWh: 100,
	}
	require.NoError(t, store.CreateConsumptionRecord(ctx, env.record))

	env.adminToken = env.login(t, "admin", "admin-pass")
	env.tenantToken = env.login(t, "tenant1", "tenant-pass")

	return env
}

func (e *testEnv) login(t *testing.T, login, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"login": login, "password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	e.server.router.ServeHTTP(rec, req)
	return rec
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"login": "admin", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"login": "ghost", "password": "whatever",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/buildings/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/buildings/", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTenantBuildingVisibility(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/buildings/", env.tenantToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Buildings []models.Building `json:"buildings"`
		Total     int               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, env.building.ID, resp.Buildings[0].ID)
	assert.Equal(t, "North", resp.Buildings[0].RegionName)

	// Foreign building is forbidden, not hidden behind a 404.
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/buildings/%s", env.foreign.ID), env.tenantToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// A building that does not exist at all is a 404.
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/buildings/%s", uuid.New()), env.tenantToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTenantCannotCreateRegions(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/regions/", env.tenantToken, map[string]string{
		"name": "West", "timezone": "UTC",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRegionLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/regions/", env.adminToken, map[string]string{
		"name": "West", "timezone": "UTC",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var region models.Region
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &region))
	require.NotZero(t, region.ID)

	rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/regions/%s", region.ID), env.adminToken, map[string]string{
		"name": "West Renamed", "timezone": "UTC",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/regions/%s", region.ID), env.adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreateConsumptionValidatesDates(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/consumption/", env.adminToken, map[string]interface{}{
		"meterId":        env.meter.ID,
		"periodStart":    "01.03.2025",
		"periodEnd":      "2025-03-31",
		"consumptionKwh": 10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/consumption/", env.adminToken, map[string]interface{}{
		"meterId":        env.meter.ID,
		"periodStart":    "2025-03-01",
		"periodEnd":      "2025-03-31",
		"consumptionKwh": 10,
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestRecordResponseCarriesCost(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/consumption/%s", env.record.ID), env.tenantToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var record models.ConsumptionRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	require.NotNil(t, record.EstimatedCost)
	assert.Equal(t, 550.0, *record.EstimatedCost)
	assert.Equal(t, "SN-1", record.MeterSerial)
}

func TestReportEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/report", env.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/report", env.tenantToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/report/export", env.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "building,total_kwh,total_cost")
	assert.Contains(t, rec.Body.String(), "TOTAL")
}

func TestUsersMe(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/users/me", env.tenantToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, env.tenantID, user.ID)
	assert.Equal(t, "tenant1", user.Login)

	// The hash never leaves the server.
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRefreshFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"login": "tenant1", "password": "tenant-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var loginResp struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))

	rec = env.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": loginResp.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var refreshResp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshResp))

	rec = env.do(t, http.MethodGet, "/api/v1/users/me", refreshResp.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDuplicateLoginConflict(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/users/", env.adminToken, map[string]string{
		"login": "tenant1", "password": "secret123", "role": "tenant",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRolesEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/roles", env.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tenant")
	assert.Contains(t, rec.Body.String(), "accountant")
	assert.Contains(t, rec.Body.String(), "admin")

	rec = env.do(t, http.MethodGet, "/api/v1/roles", env.tenantToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
