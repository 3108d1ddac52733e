package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/contactevin2u/orderops-api/pkg/enums"
)

// Order is an equipment order created from an upstream intake draft. The
// order itself carries no money fields; every charge and credit lives in the
// ledger and every receipt in payments.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string            `gorm:"column:code;not null;uniqueIndex:uq_orders_code"`
	ParentOrderID *uuid.UUID        `gorm:"column:parent_order_id;type:uuid"`
	Type          enums.OrderType   `gorm:"column:type;type:order_type;not null"`
	Status        enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'ACTIVE'"`
	CustomerName  string            `gorm:"column:customer_name;not null"`
	Phone         *string           `gorm:"column:phone"`
	Address       *string           `gorm:"column:address"`
	Notes         *string           `gorm:"column:notes"`
	Items         []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Plan          *PaymentPlan      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Ledger        []LedgerEntry     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments      []Payment         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Events        []Event           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderCodeConstraint is the unique index on orders.code.
const OrderCodeConstraint = "uq_orders_code"
