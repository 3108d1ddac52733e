package enums

import "fmt"

// OrderType distinguishes how an order is billed.
type OrderType string

const (
	OrderTypeOutright   OrderType = "OUTRIGHT"
	OrderTypeInstalment OrderType = "INSTALMENT"
	OrderTypeRental     OrderType = "RENTAL"
)

var validOrderTypes = []OrderType{
	OrderTypeOutright,
	OrderTypeInstalment,
	OrderTypeRental,
}

// String implements fmt.Stringer.
func (o OrderType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderType.
func (o OrderType) IsValid() bool {
	for _, candidate := range validOrderTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// Recurring reports whether orders of this type carry a payment plan.
func (o OrderType) Recurring() bool {
	return o == OrderTypeRental || o == OrderTypeInstalment
}

// ParseOrderType converts raw input into an OrderType.
func ParseOrderType(value string) (OrderType, error) {
	for _, candidate := range validOrderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order type %q", value)
}
