package routes

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dormledger/hostel-inventory/internal/inventory"
	pkgAuth "github.com/dormledger/hostel-inventory/pkg/auth"
	"github.com/dormledger/hostel-inventory/pkg/auth/session"
	"github.com/dormledger/hostel-inventory/pkg/config"
	"github.com/dormledger/hostel-inventory/pkg/enums"
	"github.com/dormledger/hostel-inventory/pkg/logger"
	"github.com/dormledger/hostel-inventory/pkg/metrics"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubSessions struct{}

func (stubSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubInventory struct {
	inventory.Service
	stock []inventory.StockDTO
	calls int
}

func (s *stubInventory) ListStock(ctx context.Context) ([]inventory.StockDTO, error) {
	return s.stock, nil
}

func (s *stubInventory) Issue(ctx context.Context, input inventory.IssueInput) (*inventory.IssuanceDTO, error) {
	s.calls++
	return &inventory.IssuanceDTO{ID: uuid.New(), StudentID: input.StudentID, Kind: input.Kind, Quantity: input.Quantity}, nil
}

type memoryIdempotency struct {
	data map[string]string
}

func (m *memoryIdempotency) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryIdempotency) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key], _ = value.(string)
	return true, nil
}

func (m *memoryIdempotency) IdempotencyKey(scope, id string) string { return scope + ":" + id }

func (m *memoryIdempotency) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", Port: "0"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "hostel-inventory", ExpirationMinutes: 30},
	}
}

func newTestRouter(t *testing.T, p RouterParams) http.Handler {
	t.Helper()
	if p.Config == nil {
		p.Config = testConfig()
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Sessions == nil {
		p.Sessions = stubSessions{}
	}
	return NewRouter(p)
}

func bearer(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   uuid.New(),
		Username: "warden",
		JTI:      session.NewAccessID(),
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t, RouterParams{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "dev", resp.Header().Get("X-Dorm-Env"))
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	router := newTestRouter(t, RouterParams{
		DB:    stubPinger{},
		Redis: stubPinger{err: errors.New("connection refused")},
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Contains(t, resp.Body.String(), `"redis":"down"`)
	assert.Contains(t, resp.Body.String(), `"db":"up"`)
}

func TestHealthReadyAllUp(t *testing.T) {
	router := newTestRouter(t, RouterParams{DB: stubPinger{}, Redis: stubPinger{}})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestMetricsEndpointExposesLedgerCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewLedgerMetrics(reg)
	m.Observe("issue", "ok")

	router := newTestRouter(t, RouterParams{Gatherer: reg})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "issue")
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(t, RouterParams{Inventory: &stubInventory{}})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/inventory/stock", nil))

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	inv := &stubInventory{stock: []inventory.StockDTO{{Kind: enums.InventoryKindPillow, Total: 4, Available: 4}}}
	router := newTestRouter(t, RouterParams{Config: cfg, Inventory: inv})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/stock", nil)
	req.Header.Set("Authorization", bearer(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"kind":"pillow"`)
}

func TestIssueRequiresIdempotencyKey(t *testing.T) {
	cfg := testConfig()
	inv := &stubInventory{}
	store := &memoryIdempotency{data: map[string]string{}}
	router := newTestRouter(t, RouterParams{Config: cfg, Inventory: inv, Idempotency: store})

	body := `{"student_id":1,"kind":"pillow","quantity":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/issue", strings.NewReader(body))
	req.Header.Set("Authorization", bearer(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Zero(t, inv.calls)

	auth := bearer(t, cfg)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/issue", bytes.NewBufferString(body))
		req.Header.Set("Authorization", auth)
		req.Header.Set("Idempotency-Key", "issue-1")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		assert.Equal(t, http.StatusCreated, resp.Code)
	}
	assert.Equal(t, 1, inv.calls, "replayed issue must not reach the ledger twice")
}
