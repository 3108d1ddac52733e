package enums

import "fmt"

// EventType identifies a lifecycle event on an order. All four event types
// are terminal: at most one may ever be recorded per order.
type EventType string

const (
	EventTypeReturn           EventType = "RETURN"
	EventTypeCollect          EventType = "COLLECT"
	EventTypeInstalmentCancel EventType = "INSTALMENT_CANCEL"
	EventTypeBuyback          EventType = "BUYBACK"
)

var validEventTypes = []EventType{
	EventTypeReturn,
	EventTypeCollect,
	EventTypeInstalmentCancel,
	EventTypeBuyback,
}

// String implements fmt.Stringer.
func (e EventType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EventType.
func (e EventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// TargetStatus returns the terminal order status the event transitions to.
// Buyback ends with the equipment back in the warehouse, so it lands on
// RETURNED like a plain return or collection.
func (e EventType) TargetStatus() OrderStatus {
	if e == EventTypeInstalmentCancel {
		return OrderStatusCancelled
	}
	return OrderStatusReturned
}

// ParseEventType converts raw input into an EventType.
func ParseEventType(value string) (EventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
