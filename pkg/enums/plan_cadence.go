package enums

import "fmt"

// PlanCadence is the recurrence of a payment plan. Only monthly billing is
// supported today.
type PlanCadence string

const (
	PlanCadenceMonthly PlanCadence = "MONTHLY"
)

// String implements fmt.Stringer.
func (p PlanCadence) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PlanCadence.
func (p PlanCadence) IsValid() bool {
	return p == PlanCadenceMonthly
}

// ParsePlanCadence converts raw input into a PlanCadence.
func ParsePlanCadence(value string) (PlanCadence, error) {
	if value == string(PlanCadenceMonthly) {
		return PlanCadenceMonthly, nil
	}
	return "", fmt.Errorf("invalid plan cadence %q", value)
}
