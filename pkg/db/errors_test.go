package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolationPgx(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "uq_ledger_monthly_period"}

	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "uq_ledger_monthly_period"))
	assert.False(t, IsUniqueViolation(err, "uq_events_terminal"))

	wrapped := fmt.Errorf("create ledger entry: %w", err)
	assert.True(t, IsUniqueViolation(wrapped, "uq_ledger_monthly_period"))
}

func TestIsUniqueViolationOtherCodes(t *testing.T) {
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(nil, ""))
	assert.False(t, IsUniqueViolation(errors.New("connection refused"), ""))
}

func TestIsUniqueViolationSQLiteText(t *testing.T) {
	err := errors.New("UNIQUE constraint failed: ledger_entries.order_id, ledger_entries.period")
	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "uq_ledger_monthly_period"))
}
