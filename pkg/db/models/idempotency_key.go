package models

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyKey claims one client-submitted mutation. The composite unique
// index on (key, method, path) is the sole arbiter of which concurrent
// duplicate wins; StatusCode and ResponseBody stay nil until the winning
// request finalizes its outcome.
type IdempotencyKey struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Key          string    `gorm:"column:key;not null;uniqueIndex:uq_idempotency_scope,priority:1"`
	Method       string    `gorm:"column:method;not null;uniqueIndex:uq_idempotency_scope,priority:2"`
	Path         string    `gorm:"column:path;not null;uniqueIndex:uq_idempotency_scope,priority:3"`
	StatusCode   *int      `gorm:"column:status_code"`
	ResponseBody *string   `gorm:"column:response_body"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// IdempotencyScopeConstraint is the composite unique index on
// (key, method, path).
const IdempotencyScopeConstraint = "uq_idempotency_scope"

// Finalized reports whether the original request has recorded its outcome.
func (k IdempotencyKey) Finalized() bool {
	return k.StatusCode != nil && k.ResponseBody != nil
}
