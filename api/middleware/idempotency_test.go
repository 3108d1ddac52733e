package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactevin2u/orderops-api/internal/idempotency"
	pkgerrors "github.com/contactevin2u/orderops-api/pkg/errors"
	"github.com/contactevin2u/orderops-api/pkg/logger"
)

type fakeIdempotency struct {
	claim       *idempotency.ClaimResult
	claimErr    error
	claimedKey  string
	claimedPath string
	finalized   bool
	finalStatus int
	finalBody   string
}

func (f *fakeIdempotency) Claim(_ context.Context, key, _, path string) (*idempotency.ClaimResult, error) {
	f.claimedKey = key
	f.claimedPath = path
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	if f.claim != nil {
		return f.claim, nil
	}
	return &idempotency.ClaimResult{Fresh: true}, nil
}

func (f *fakeIdempotency) Finalize(_ context.Context, _, _, _ string, statusCode int, responseBody string) error {
	f.finalized = true
	f.finalStatus = statusCode
	f.finalBody = responseBody
	return nil
}

func middlewareLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
}

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(body))
	})
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	fake := &fakeIdempotency{}
	handler := Idempotency(fake, middlewareLogger())(okHandler(`{}`))

	req := httptest.NewRequest(http.MethodPost, "/v1/orders", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, fake.finalized)
}

func TestIdempotencyFreshClaimFinalizesOutcome(t *testing.T) {
	fake := &fakeIdempotency{}
	handler := Idempotency(fake, middlewareLogger())(okHandler(`{"data":{"code":"KS-1001"}}`))

	req := httptest.NewRequest(http.MethodPost, "/v1/orders", nil)
	req.Header.Set("Idempotency-Key", "key-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "key-1", fake.claimedKey)
	assert.Equal(t, "/v1/orders", fake.claimedPath)
	require.True(t, fake.finalized)
	assert.Equal(t, http.StatusCreated, fake.finalStatus)
	assert.JSONEq(t, `{"data":{"code":"KS-1001"}}`, fake.finalBody)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	fake := &fakeIdempotency{claim: &idempotency.ClaimResult{
		Replay:       true,
		StatusCode:   http.StatusCreated,
		ResponseBody: `{"data":{"code":"KS-1001"}}`,
	}}
	handlerRan := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { handlerRan = true })
	handler := Idempotency(fake, middlewareLogger())(next)

	req := httptest.NewRequest(http.MethodPost, "/v1/orders", nil)
	req.Header.Set("Idempotency-Key", "key-2")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.False(t, handlerRan, "replay must not re-execute the handler")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("Idempotency-Replayed"))
	assert.JSONEq(t, `{"data":{"code":"KS-1001"}}`, rec.Body.String())
	assert.False(t, fake.finalized)
}

func TestIdempotencyInFlightDuplicate(t *testing.T) {
	fake := &fakeIdempotency{claimErr: pkgerrors.New(pkgerrors.CodeIdempotency, "original request still in progress")}
	handler := Idempotency(fake, middlewareLogger())(okHandler(`{}`))

	req := httptest.NewRequest(http.MethodPost, "/v1/orders/KS-1/events", nil)
	req.Header.Set("Idempotency-Key", "key-3")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "IDEMPOTENCY_KEY_REUSED")
}

func TestIdempotencySkipsUngatedRoutes(t *testing.T) {
	fake := &fakeIdempotency{}
	handler := Idempotency(fake, middlewareLogger())(okHandler(`{}`))

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/v1/orders"},
		{http.MethodGet, "/v1/orders/KS-1"},
		{http.MethodGet, "/health/live"},
		{http.MethodPost, "/v1/something-else"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code, "%s %s should pass through", tc.method, tc.path)
	}
	assert.Empty(t, fake.claimedKey)
}

func TestIdempotencyGatesSuffixRoutes(t *testing.T) {
	for _, path := range []string{
		"/v1/orders/KS-1/payments",
		"/v1/orders/KS-1/payments/123/void",
		"/v1/orders/KS-1/events",
		"/v1/orders/KS-1/accrue",
		"/v1/orders/KS-1/adjustments",
	} {
		fake := &fakeIdempotency{}
		handler := Idempotency(fake, middlewareLogger())(okHandler(`{}`))

		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("Idempotency-Key", "key-9")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, path, fake.claimedPath)
		require.True(t, fake.finalized, "path %s should be gated", path)
	}
}

func TestIdempotencyTrailingSlashNormalized(t *testing.T) {
	fake := &fakeIdempotency{}
	handler := Idempotency(fake, middlewareLogger())(okHandler(`{}`))

	req := httptest.NewRequest(http.MethodPost, "/v1/orders/", nil)
	req.Header.Set("Idempotency-Key", "key-10")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "/v1/orders", fake.claimedPath)
}

func TestIdempotencyNilServicePassesThrough(t *testing.T) {
	handler := Idempotency(nil, middlewareLogger())(okHandler(`{}`))

	req := httptest.NewRequest(http.MethodPost, "/v1/orders", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}
