package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/contactevin2u/orderops-api/pkg/errors"
	"github.com/contactevin2u/orderops-api/pkg/logger"
	"github.com/contactevin2u/orderops-api/pkg/types"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
}

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"code": "KS-1001"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var envelope types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "KS-1001", data["code"])
}

func TestWriteSuccessStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccessStatus(rec, http.StatusCreated, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestWriteReplaySetsHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteReplay(rec, http.StatusCreated, `{"data":{"ok":true}}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("Idempotency-Replayed"))
	assert.JSONEq(t, `{"data":{"ok":true}}`, rec.Body.String())
}

func TestWriteErrorMapsCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"not found", pkgerrors.New(pkgerrors.CodeNotFound, "order KS-1 not found"), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", pkgerrors.New(pkgerrors.CodeConflict, "order code KS-1 already exists"), http.StatusConflict, "CONFLICT"},
		{"state conflict", pkgerrors.New(pkgerrors.CodeStateConflict, "order is no longer active"), http.StatusUnprocessableEntity, "STATE_CONFLICT"},
		{"idempotency", pkgerrors.New(pkgerrors.CodeIdempotency, "duplicate"), http.StatusConflict, "IDEMPOTENCY_KEY_REUSED"},
		{"dependency", pkgerrors.New(pkgerrors.CodeDependency, "db down"), http.StatusServiceUnavailable, "DEPENDENCY_ERROR"},
		{"untyped", errors.New("kaboom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(context.Background(), testLogger(), rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var envelope types.ErrorEnvelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
			assert.Equal(t, tt.wantCode, envelope.Error.Code)
		})
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.Wrap(pkgerrors.CodeInternal, errors.New("password=hunter2"), "boom")
	WriteError(context.Background(), testLogger(), rec, err)

	assert.NotContains(t, rec.Body.String(), "hunter2")
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestWriteErrorSurfacesValidationMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "item qty must be positive").
		WithDetails(map[string]string{"qty": "must be greater than 0"})
	WriteError(context.Background(), testLogger(), rec, err)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "item qty must be positive", envelope.Error.Message)
	assert.NotNil(t, envelope.Error.Details)
}
