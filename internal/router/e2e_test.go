//go:build integration

package router_test

// End-to-end tests against real Postgres and Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"context"
	"net/http"
	"testing"
	"time"

	"chicpos/internal/clock"
	"chicpos/internal/config"
	"chicpos/internal/infra"
	"chicpos/internal/model"
	"chicpos/internal/router"
	"chicpos/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

func setupContainers(t *testing.T) (*testEnv, *redis.Client) {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:15-alpine",
		tcPostgres.WithDatabase("chicpos_test"),
		tcPostgres.WithUsername("chicpos"),
		tcPostgres.WithPassword("chicpos"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                "test",
		JWTSecret:          "e2e-secret",
		JWTExpirationHours: 1,
		JWTRefreshHours:    2,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		StoreTimezone:      "UTC",
		SettingsCacheTTL:   time.Minute,
		DefaultTaxRate:     0.06,
		DefaultMdrPix:      0.01,
		DefaultMdrCard:     0.03,
		CommissionRate:     0.03,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	env := &testEnv{
		db:      db,
		owner:   model.User{Name: "Dona Chic", Email: "dona@e2e.test", PasswordHash: string(hash), Role: model.RoleOwner},
		seller:  model.User{Name: "Bia", Email: "bia@e2e.test", PasswordHash: string(hash), Role: model.RoleSeller},
		auditor: model.User{Name: "Contadora", Email: "contas@e2e.test", PasswordHash: string(hash), Role: model.RoleAuditor},
		product: model.Product{Name: "Blusa Linho", Category: "Blusas", Price: decimal.RequireFromString("159.00"), Cost: decimal.RequireFromString("70.00"), Stock: 3},
	}
	require.NoError(t, db.Create(&env.owner).Error)
	require.NoError(t, db.Create(&env.seller).Error)
	require.NoError(t, db.Create(&env.auditor).Error)
	require.NoError(t, db.Create(&env.product).Error)

	env.r = router.New(cfg, router.Deps{
		DB:       db,
		Redis:    rdb,
		Receipts: worker.NewDispatcher(rdb),
		Clock:    clock.NewFakeClock(time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)),
	})
	return env, rdb
}

func TestE2E_LedgerIsAppendOnly(t *testing.T) {
	env, _ := setupContainers(t)
	token := login(t, env, env.seller.Email)

	w := do(env.r, http.MethodPost, "/v1/sales", jsonBody(map[string]any{
		"items":          []map[string]any{{"product_id": env.product.ID.String(), "quantity": 1, "unit_price": "159.00"}},
		"total":          "159.00",
		"payment_method": "CARD",
	}), token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	err := env.db.Exec(`UPDATE sales SET total = 1`).Error
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aceita apenas inserções")

	err = env.db.Exec(`DELETE FROM audit_logs`).Error
	assert.Error(t, err)
}

func TestE2E_ClosureEnqueuesReceipt(t *testing.T) {
	env, rdb := setupContainers(t)
	token := login(t, env, env.seller.Email)

	w := do(env.r, http.MethodPost, "/v1/closures", nil, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	n, err := rdb.LLen(context.Background(), worker.QueueClosureReceipt).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	w = do(env.r, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"connected"`)
}
