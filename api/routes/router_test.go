package routes

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/contactevin2u/orderops-api/internal/accrual"
	"github.com/contactevin2u/orderops-api/internal/balance"
	"github.com/contactevin2u/orderops-api/internal/idempotency"
	"github.com/contactevin2u/orderops-api/internal/ledger"
	"github.com/contactevin2u/orderops-api/internal/orders"
	"github.com/contactevin2u/orderops-api/internal/payments"
	"github.com/contactevin2u/orderops-api/internal/plans"
	"github.com/contactevin2u/orderops-api/internal/reports"
	"github.com/contactevin2u/orderops-api/pkg/config"
	"github.com/contactevin2u/orderops-api/pkg/db/models"
	"github.com/contactevin2u/orderops-api/pkg/enums"
	"github.com/contactevin2u/orderops-api/pkg/logger"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

var routerSchema = []string{`
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL,
  parent_order_id TEXT,
  type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'ACTIVE',
  customer_name TEXT NOT NULL,
  phone TEXT,
  address TEXT,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE UNIQUE INDEX IF NOT EXISTS uq_orders_code ON orders (code);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  sku TEXT,
  name TEXT NOT NULL,
  qty INTEGER NOT NULL DEFAULT 1,
  unit_price NUMERIC NOT NULL,
  rent_monthly NUMERIC,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS payment_plans (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  cadence TEXT NOT NULL DEFAULT 'MONTHLY',
  term_months INTEGER,
  monthly_amount NUMERIC NOT NULL,
  start_date DATETIME,
  end_date DATETIME,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS ledger_entries (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  period TEXT,
  note TEXT,
  created_at DATETIME
);`, `
CREATE UNIQUE INDEX IF NOT EXISTS uq_ledger_monthly_period
ON ledger_entries (order_id, period)
WHERE kind = 'MONTHLY_CHARGE';`, `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  method TEXT NOT NULL DEFAULT 'CASH',
  reference TEXT,
  notes TEXT,
  voided INTEGER NOT NULL DEFAULT 0,
  void_reason TEXT,
  voided_at DATETIME,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS events (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  type TEXT NOT NULL,
  terminal INTEGER NOT NULL DEFAULT 1,
  reason TEXT,
  notes TEXT,
  created_at DATETIME
);`, `
CREATE UNIQUE INDEX IF NOT EXISTS uq_events_terminal
ON events (order_id)
WHERE terminal = 1;`, `
CREATE TABLE IF NOT EXISTS idempotency_keys (
  id TEXT PRIMARY KEY,
  key TEXT NOT NULL,
  method TEXT NOT NULL,
  path TEXT NOT NULL,
  status_code INTEGER,
  response_body TEXT,
  created_at DATETIME
);`, `
CREATE UNIQUE INDEX IF NOT EXISTS uq_idempotency_scope
ON idempotency_keys (key, method, path);`}

func setupRouter(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	for _, stmt := range routerSchema {
		require.NoError(t, db.Exec(stmt).Error)
	}

	tx := &testTxRunner{db: db}
	ordersRepo := orders.NewRepository(db)
	plansRepo := plans.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	paymentsRepo := payments.NewRepository(db)

	orderSvc, err := orders.NewService(tx, ordersRepo, plansRepo, ledgerRepo, paymentsRepo)
	require.NoError(t, err)
	accrualSvc, err := accrual.NewService(tx, plansRepo, ledgerRepo, nil)
	require.NoError(t, err)
	calculator, err := balance.NewCalculator(ledgerRepo, paymentsRepo)
	require.NoError(t, err)
	reportsSvc, err := reports.NewService(orderSvc, calculator)
	require.NoError(t, err)
	idempotencySvc, err := idempotency.NewService(idempotency.NewRepository(db))
	require.NoError(t, err)
	ledgerSvc, err := ledger.NewService(ledgerRepo)
	require.NoError(t, err)

	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	router := NewRouter(RouterParams{
		Config:      &config.Config{App: config.AppConfig{Env: "test"}},
		Logger:      logg,
		Orders:      orderSvc,
		OrdersRepo:  ordersRepo,
		Accrual:     accrualSvc,
		Ledger:      ledgerSvc,
		Balance:     calculator,
		Reports:     reportsSvc,
		Idempotency: idempotencySvc,
	})
	return router, db
}

func doRequest(t *testing.T, router http.Handler, method, path, body, idempotencyKey string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthLive(t *testing.T) {
	router, _ := setupRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-OrderOps-Env"))
}

func TestOrderCreateRequiresIdempotencyKey(t *testing.T) {
	router, _ := setupRouter(t)

	body := `{"code":"KS-1001","type":"OUTRIGHT","customer_name":"Lim Mei Ling","items":[{"name":"Bed","qty":1,"unit_price":"500"}]}`
	rec := doRequest(t, router, http.MethodPost, "/v1/orders", body, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Idempotency-Key")
}

func TestOrderCreateAndReplay(t *testing.T) {
	router, _ := setupRouter(t)

	body := `{"code":"KS-1001","type":"OUTRIGHT","customer_name":"Lim Mei Ling","items":[{"name":"Bed","qty":2,"unit_price":"500"}],"delivery_fee":"80"}`
	first := doRequest(t, router, http.MethodPost, "/v1/orders", body, "create-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	assert.Contains(t, first.Body.String(), `"code":"KS-1001"`)
	assert.Empty(t, first.Header().Get("Idempotency-Replayed"))

	second := doRequest(t, router, http.MethodPost, "/v1/orders", body, "create-1")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotency-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	detail := doRequest(t, router, http.MethodGet, "/v1/orders/KS-1001", "", "")
	assert.Equal(t, http.StatusOK, detail.Code)
	assert.Contains(t, detail.Body.String(), `"INITIAL_CHARGE"`)

	balanceRec := doRequest(t, router, http.MethodGet, "/v1/orders/KS-1001/balance", "", "")
	assert.Equal(t, http.StatusOK, balanceRec.Code)
	assert.Contains(t, balanceRec.Body.String(), `"outstanding":"1080"`)
}

func TestOrderCreateDuplicateCodeDifferentKey(t *testing.T) {
	router, _ := setupRouter(t)

	body := `{"code":"KS-1002","type":"OUTRIGHT","customer_name":"Lim Mei Ling","items":[{"name":"Bed","qty":1,"unit_price":"500"}]}`
	first := doRequest(t, router, http.MethodPost, "/v1/orders", body, "dup-1")
	require.Equal(t, http.StatusCreated, first.Code)

	second := doRequest(t, router, http.MethodPost, "/v1/orders", body, "dup-2")
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Contains(t, second.Body.String(), "CONFLICT")
}

func TestEventRouteTerminatesOrder(t *testing.T) {
	router, db := setupRouter(t)

	order := &models.Order{
		ID:           uuid.New(),
		Code:         "KS-2001",
		Type:         enums.OrderTypeRental,
		Status:       enums.OrderStatusActive,
		CustomerName: "Lim Mei Ling",
	}
	require.NoError(t, db.Create(order).Error)

	rec := doRequest(t, router, http.MethodPost, "/v1/orders/KS-2001/events", `{"type":"RETURN"}`, "event-1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"RETURNED"`)

	again := doRequest(t, router, http.MethodPost, "/v1/orders/KS-2001/events", `{"type":"BUYBACK"}`, "event-2")
	assert.Equal(t, http.StatusUnprocessableEntity, again.Code)
}

func TestAccrueRouteMaterializesCharges(t *testing.T) {
	router, db := setupRouter(t)

	order := &models.Order{
		ID:           uuid.New(),
		Code:         "KS-3001",
		Type:         enums.OrderTypeRental,
		Status:       enums.OrderStatusActive,
		CustomerName: "Lim Mei Ling",
	}
	require.NoError(t, db.Create(order).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO payment_plans (id, order_id, cadence, monthly_amount, start_date, active) VALUES (?, ?, 'MONTHLY', 300, '2024-01-01 00:00:00', 1)`,
		uuid.NewString(), order.ID.String(),
	).Error)

	rec := doRequest(t, router, http.MethodPost, "/v1/orders/KS-3001/accrue?as_of=2024-04-02", "", "accrue-1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"entries_created":3`)
}

func TestAdjustmentRoute(t *testing.T) {
	router, db := setupRouter(t)

	order := &models.Order{
		ID:           uuid.New(),
		Code:         "KS-4001",
		Type:         enums.OrderTypeOutright,
		Status:       enums.OrderStatusActive,
		CustomerName: "Lim Mei Ling",
	}
	require.NoError(t, db.Create(order).Error)
	opening := &models.LedgerEntry{
		ID:      uuid.New(),
		OrderID: order.ID,
		Kind:    enums.LedgerKindInitialCharge,
		Amount:  decimal.NewFromInt(500),
	}
	require.NoError(t, db.Create(opening).Error)

	zero := doRequest(t, router, http.MethodPost, "/v1/orders/KS-4001/adjustments", `{"amount":"0"}`, "adj-0")
	assert.Equal(t, http.StatusBadRequest, zero.Code)

	credit := doRequest(t, router, http.MethodPost, "/v1/orders/KS-4001/adjustments", `{"amount":"-120","note":"damaged frame discount"}`, "adj-1")
	require.Equal(t, http.StatusCreated, credit.Code, credit.Body.String())
	assert.Contains(t, credit.Body.String(), `"ADJUSTMENT"`)

	missing := doRequest(t, router, http.MethodPost, "/v1/orders/KS-9999/adjustments", `{"amount":"-10"}`, "adj-2")
	assert.Equal(t, http.StatusNotFound, missing.Code)

	balanceRec := doRequest(t, router, http.MethodGet, "/v1/orders/KS-4001/balance", "", "")
	require.Equal(t, http.StatusOK, balanceRec.Code)
	assert.Contains(t, balanceRec.Body.String(), `"outstanding":"380"`)
}

func TestAgingRoute(t *testing.T) {
	router, _ := setupRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/v1/reports/aging", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"buckets"`)
}

func TestUnknownRoute(t *testing.T) {
	router, _ := setupRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/v1/unknown", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
