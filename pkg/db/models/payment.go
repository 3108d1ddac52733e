package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contactevin2u/orderops-api/pkg/enums"
)

// Payment records money received against an order. Payments are never
// deleted; a mistaken payment is voided, which excludes it from balance
// computation while keeping the audit trail.
type Payment struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	Amount     decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Method     enums.PaymentMethod `gorm:"column:method;type:payment_method;not null;default:'CASH'"`
	Reference  *string             `gorm:"column:reference"`
	Notes      *string             `gorm:"column:notes"`
	Voided     bool                `gorm:"column:voided;not null;default:false"`
	VoidReason *string             `gorm:"column:void_reason"`
	VoidedAt   *time.Time          `gorm:"column:voided_at"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
}
