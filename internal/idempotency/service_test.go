package idempotency

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/contactevin2u/orderops-api/pkg/errors"
)

func setupIdempotencyTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	keys := `
CREATE TABLE IF NOT EXISTS idempotency_keys (
  id TEXT PRIMARY KEY,
  key TEXT NOT NULL,
  method TEXT NOT NULL,
  path TEXT NOT NULL,
  status_code INTEGER,
  response_body TEXT,
  created_at DATETIME
);`
	scopeIdx := `
CREATE UNIQUE INDEX IF NOT EXISTS uq_idempotency_scope
ON idempotency_keys (key, method, path);`
	require.NoError(t, db.Exec(keys).Error)
	require.NoError(t, db.Exec(scopeIdx).Error)
	return db
}

func newIdempotencyService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func TestClaimFreshKey(t *testing.T) {
	db := setupIdempotencyTestDB(t)
	svc := newIdempotencyService(t, db)

	result, err := svc.Claim(context.Background(), "key-1", "POST", "/v1/orders")
	require.NoError(t, err)
	assert.True(t, result.Fresh)
	assert.False(t, result.Replay)
}

func TestClaimInFlightDuplicate(t *testing.T) {
	db := setupIdempotencyTestDB(t)
	svc := newIdempotencyService(t, db)
	ctx := context.Background()

	_, err := svc.Claim(ctx, "key-2", "POST", "/v1/orders")
	require.NoError(t, err)

	_, err = svc.Claim(ctx, "key-2", "POST", "/v1/orders")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeIdempotency), "got %v", err)
}

func TestClaimReplaysFinalizedOutcome(t *testing.T) {
	db := setupIdempotencyTestDB(t)
	svc := newIdempotencyService(t, db)
	ctx := context.Background()

	_, err := svc.Claim(ctx, "key-3", "POST", "/v1/orders")
	require.NoError(t, err)
	require.NoError(t, svc.Finalize(ctx, "key-3", "POST", "/v1/orders", 201, `{"order":"KS-1001"}`))

	result, err := svc.Claim(ctx, "key-3", "POST", "/v1/orders")
	require.NoError(t, err)
	assert.False(t, result.Fresh)
	assert.True(t, result.Replay)
	assert.Equal(t, 201, result.StatusCode)
	assert.Equal(t, `{"order":"KS-1001"}`, result.ResponseBody)
}

func TestClaimScopeIncludesMethodAndPath(t *testing.T) {
	db := setupIdempotencyTestDB(t)
	svc := newIdempotencyService(t, db)
	ctx := context.Background()

	result, err := svc.Claim(ctx, "key-4", "POST", "/v1/orders")
	require.NoError(t, err)
	assert.True(t, result.Fresh)

	result, err = svc.Claim(ctx, "key-4", "POST", "/v1/orders/KS-1/payments")
	require.NoError(t, err)
	assert.True(t, result.Fresh, "same key on a different path is a fresh claim")
}

func TestClaimValidation(t *testing.T) {
	db := setupIdempotencyTestDB(t)
	svc := newIdempotencyService(t, db)
	ctx := context.Background()

	_, err := svc.Claim(ctx, "", "POST", "/v1/orders")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Claim(ctx, "key-5", "", "/v1/orders")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestFinalizeValidation(t *testing.T) {
	db := setupIdempotencyTestDB(t)
	svc := newIdempotencyService(t, db)
	ctx := context.Background()

	err := svc.Finalize(ctx, "", "POST", "/v1/orders", 200, "{}")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	err = svc.Finalize(ctx, "key-6", "POST", "/v1/orders", 0, "{}")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestClaimConcurrentSameKey(t *testing.T) {
	db := setupIdempotencyTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection: sqlite's shared cache cannot serve concurrent writers
	sqlDB.SetMaxOpenConns(1)

	svc := newIdempotencyService(t, db)
	ctx := context.Background()

	var wg sync.WaitGroup
	start := make(chan struct{})
	results := make([]*ClaimResult, 2)
	claimErrs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], claimErrs[i] = svc.Claim(ctx, "key-race", "POST", "/v1/orders")
		}(i)
	}
	close(start)
	wg.Wait()

	fresh := 0
	for i := range results {
		if claimErrs[i] == nil {
			require.NotNil(t, results[i])
			assert.True(t, results[i].Fresh)
			fresh++
			continue
		}
		assert.True(t, pkgerrors.Is(claimErrs[i], pkgerrors.CodeIdempotency), "got %v", claimErrs[i])
	}
	assert.Equal(t, 1, fresh, "unique index admits exactly one claim")
}
