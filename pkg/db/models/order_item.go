package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is one equipment line on an order. Items are immutable once the
// order is created; pricing corrections are ledger adjustments, never edits.
type OrderItem struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID        `gorm:"column:order_id;type:uuid;not null;index"`
	SKU         *string          `gorm:"column:sku"`
	Name        string           `gorm:"column:name;not null"`
	Qty         int              `gorm:"column:qty;not null;default:1"`
	UnitPrice   decimal.Decimal  `gorm:"column:unit_price;type:numeric(12,2);not null"`
	RentMonthly *decimal.Decimal `gorm:"column:rent_monthly;type:numeric(12,2)"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
}
