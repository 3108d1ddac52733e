package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contactevin2u/orderops-api/pkg/enums"
)

// LedgerEntry is one immutable signed monetary record on an order. Entries
// are append-only; the uq_ledger_monthly_period partial unique index on
// (order_id, period) keeps MONTHLY_CHARGE accrual from double counting even
// when accrual runs overlap.
type LedgerEntry struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID        `gorm:"column:order_id;type:uuid;not null;index"`
	Kind      enums.LedgerKind `gorm:"column:kind;type:ledger_kind;not null"`
	Amount    decimal.Decimal  `gorm:"column:amount;type:numeric(12,2);not null"`
	Period    *string          `gorm:"column:period"`
	Note      *string          `gorm:"column:note"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
}

// LedgerMonthlyPeriodConstraint is the partial unique index enforcing at most
// one MONTHLY_CHARGE per (order, period).
const LedgerMonthlyPeriodConstraint = "uq_ledger_monthly_period"
