package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contactevin2u/orderops-api/pkg/enums"
)

// PaymentPlan is the recurring-billing configuration attached to RENTAL and
// INSTALMENT orders. Deactivating the plan halts further accrual; already
// accrued charges stay on the ledger.
type PaymentPlan struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID         `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Cadence       enums.PlanCadence `gorm:"column:cadence;type:plan_cadence;not null;default:'MONTHLY'"`
	TermMonths    *int              `gorm:"column:term_months"`
	MonthlyAmount decimal.Decimal   `gorm:"column:monthly_amount;type:numeric(12,2);not null"`
	StartDate     *time.Time        `gorm:"column:start_date"`
	EndDate       *time.Time        `gorm:"column:end_date"`
	Active        bool              `gorm:"column:active;not null;default:true"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
