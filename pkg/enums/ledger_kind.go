package enums

import "fmt"

// LedgerKind classifies a ledger entry. Charges carry positive amounts,
// credits negative ones; ADJUSTMENT may go either way.
type LedgerKind string

const (
	LedgerKindInitialCharge    LedgerKind = "INITIAL_CHARGE"
	LedgerKindMonthlyCharge    LedgerKind = "MONTHLY_CHARGE"
	LedgerKindDeliveryOutbound LedgerKind = "DELIVERY_OUTBOUND"
	LedgerKindDeliveryReturn   LedgerKind = "DELIVERY_RETURN"
	LedgerKindPenalty          LedgerKind = "PENALTY"
	LedgerKindBuybackCredit    LedgerKind = "BUYBACK_CREDIT"
	LedgerKindAdjustment       LedgerKind = "ADJUSTMENT"
)

var validLedgerKinds = []LedgerKind{
	LedgerKindInitialCharge,
	LedgerKindMonthlyCharge,
	LedgerKindDeliveryOutbound,
	LedgerKindDeliveryReturn,
	LedgerKindPenalty,
	LedgerKindBuybackCredit,
	LedgerKindAdjustment,
}

// String implements fmt.Stringer.
func (l LedgerKind) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LedgerKind.
func (l LedgerKind) IsValid() bool {
	for _, candidate := range validLedgerKinds {
		if candidate == l {
			return true
		}
	}
	return false
}

// RequiresPeriod reports whether entries of this kind must carry a
// calendar-month period label.
func (l LedgerKind) RequiresPeriod() bool {
	return l == LedgerKindMonthlyCharge
}

// ParseLedgerKind converts raw input into a LedgerKind.
func ParseLedgerKind(value string) (LedgerKind, error) {
	for _, candidate := range validLedgerKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger kind %q", value)
}
