package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chicpos/internal/clock"
	"chicpos/internal/config"
	"chicpos/internal/infra"
	"chicpos/internal/metrics"
	"chicpos/internal/model"
	"chicpos/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const password = "senha-forte-1"

type testEnv struct {
	r       *gin.Engine
	db      *gorm.DB
	owner   model.User
	seller  model.User
	auditor model.User
	product model.Product
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func jsonBody(v any) *bytes.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func do(r http.Handler, method, path string, body *bytes.Reader, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func login(t *testing.T, env *testEnv, email string) string {
	t.Helper()
	w := do(env.r, http.MethodPost, "/v1/auth/login", jsonBody(map[string]string{"email": email, "password": password}), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, w, &resp)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, infra.RunMigrations(db))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	env := &testEnv{
		db:      db,
		owner:   model.User{Name: "Dona Chic", Email: "dona@chic.test", PasswordHash: string(hash), Role: model.RoleOwner},
		seller:  model.User{Name: "Ana", Email: "ana@chic.test", PasswordHash: string(hash), Role: model.RoleSeller},
		auditor: model.User{Name: "Contadora", Email: "contas@chic.test", PasswordHash: string(hash), Role: model.RoleAuditor},
		product: model.Product{Name: "Vestido Midi", Category: "Vestidos", Price: decimal.RequireFromString("289.90"), Cost: decimal.RequireFromString("120.00"), Stock: 5},
	}
	require.NoError(t, db.Create(&env.owner).Error)
	require.NoError(t, db.Create(&env.seller).Error)
	require.NoError(t, db.Create(&env.auditor).Error)
	require.NoError(t, db.Create(&env.product).Error)

	cfg := &config.Config{
		Env:                "test",
		JWTSecret:          "router-test-secret",
		JWTExpirationHours: 1,
		JWTRefreshHours:    2,
		StoreTimezone:      "UTC",
		SettingsCacheTTL:   time.Minute,
		DefaultTaxRate:     0.06,
		DefaultMdrPix:      0.01,
		DefaultMdrCard:     0.03,
		DefaultMdrCash:     0,
		CommissionRate:     0.03,
	}
	reg := prometheus.NewRegistry()
	env.r = router.New(cfg, router.Deps{
		DB:       db,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
		Clock:    clock.NewFakeClock(time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)),
	})
	return env
}

// ── Flows ─────────────────────────────────────────────────────────────────────

func TestSaleClosureAndDRE(t *testing.T) {
	env := setup(t)
	sellerToken := login(t, env, env.seller.Email)
	ownerToken := login(t, env, env.owner.Email)

	w := do(env.r, http.MethodPost, "/v1/sales", jsonBody(map[string]any{
		"items":          []map[string]any{{"product_id": env.product.ID.String(), "quantity": 1, "unit_price": "289.90"}},
		"total":          "289.90",
		"payment_method": "PIX",
	}), sellerToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID   string `json:"id"`
		Kind string `json:"kind"`
	}
	decodeJSON(t, w, &created)
	assert.Equal(t, "SALE", created.Kind)

	w = do(env.r, http.MethodPost, "/v1/closures", jsonBody(map[string]string{"day": "2026-03-10"}), sellerToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var closure struct {
		Day        string `json:"day"`
		TotalSales string `json:"total_sales"`
		SalesCount int    `json:"sales_count"`
	}
	decodeJSON(t, w, &closure)
	assert.Equal(t, "2026-03-10", closure.Day)
	assert.Equal(t, "289.9", closure.TotalSales)
	assert.Equal(t, 1, closure.SalesCount)

	w = do(env.r, http.MethodGet, "/v1/accounting/dre?month=3&year=2026", nil, ownerToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var dre struct {
		Revenue string `json:"revenue"`
		CMV     string `json:"cmv"`
	}
	decodeJSON(t, w, &dre)
	assert.Equal(t, "289.9", dre.Revenue)
	assert.Equal(t, "144.95", dre.CMV)
}

func TestRolesHealthAndMetrics(t *testing.T) {
	env := setup(t)
	sellerToken := login(t, env, env.seller.Email)
	auditorToken := login(t, env, env.auditor.Email)

	assert.Equal(t, http.StatusUnauthorized, do(env.r, http.MethodGet, "/v1/ledger", nil, "").Code)
	assert.Equal(t, http.StatusForbidden, do(env.r, http.MethodGet, "/v1/accounting/dre?month=3&year=2026", nil, sellerToken).Code)
	assert.Equal(t, http.StatusForbidden, do(env.r, http.MethodPost, "/v1/sales", jsonBody(map[string]any{}), auditorToken).Code)
	assert.Equal(t, http.StatusOK, do(env.r, http.MethodGet, "/v1/ledger", nil, auditorToken).Code)

	w := do(env.r, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var health map[string]any
	decodeJSON(t, w, &health)
	assert.Equal(t, "connected", health["db"])
	assert.Equal(t, "disabled", health["redis"])

	w = do(env.r, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "chicpos_http_request_duration_seconds")
}

func TestUserDeletionIsAudited(t *testing.T) {
	env := setup(t)
	ownerToken := login(t, env, env.owner.Email)
	auditorToken := login(t, env, env.auditor.Email)

	w := do(env.r, http.MethodDelete, "/v1/users/"+env.seller.ID.String(), nil, ownerToken)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = do(env.r, http.MethodGet, "/v1/audit/logs", nil, auditorToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var logs []struct {
		Action      string `json:"action"`
		PerformedBy string `json:"performed_by"`
	}
	decodeJSON(t, w, &logs)
	var deleted int
	for _, l := range logs {
		if l.Action == model.AuditUserDeleted {
			deleted++
			assert.Equal(t, "Dona Chic", l.PerformedBy)
		}
	}
	assert.Equal(t, 1, deleted)

	w = do(env.r, http.MethodDelete, "/v1/users/"+env.owner.ID.String(), nil, ownerToken)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
