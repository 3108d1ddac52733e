package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/contactevin2u/orderops-api/pkg/enums"
)

// Event is an immutable audit record of an order lifecycle event. Every
// event type in this system ends the order's active life, so Terminal is
// always true today; the uq_events_terminal partial unique index on
// (order_id) where terminal makes "at most one terminal event per order"
// hold under concurrent submissions.
type Event struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	Type      enums.EventType `gorm:"column:type;type:event_type;not null"`
	Terminal  bool            `gorm:"column:terminal;not null;default:true"`
	Reason    *string         `gorm:"column:reason"`
	Notes     *string         `gorm:"column:notes"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// EventTerminalConstraint is the partial unique index enforcing at most one
// terminal event per order.
const EventTerminalConstraint = "uq_events_terminal"
