package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/contactevin2u/orderops-api/pkg/db/models"
	"github.com/contactevin2u/orderops-api/pkg/enums"
)

// ItemDraft is one equipment line on an incoming draft.
type ItemDraft struct {
	SKU         *string          `json:"sku"`
	Name        string           `json:"name" validate:"required"`
	Qty         int              `json:"qty" validate:"required,gt=0"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	RentMonthly *decimal.Decimal `json:"rent_monthly"`
}

// PlanDraft carries recurring-billing terms for RENTAL and INSTALMENT drafts.
type PlanDraft struct {
	TermMonths    *int            `json:"term_months" validate:"omitempty,gt=0"`
	MonthlyAmount decimal.Decimal `json:"monthly_amount"`
	StartDate     *time.Time      `json:"start_date"`
	EndDate       *time.Time      `json:"end_date"`
}

// Draft is the structured order an upstream intake component produces. The
// core validates and persists it; it never parses free text itself.
type Draft struct {
	Code         string           `json:"code" validate:"required"`
	ParentCode   *string          `json:"parent_code"`
	Type         string           `json:"type" validate:"required"`
	CustomerName string           `json:"customer_name" validate:"required"`
	Phone        *string          `json:"phone"`
	Address      *string          `json:"address"`
	Notes        *string          `json:"notes"`
	Items        []ItemDraft      `json:"items" validate:"required,min=1,dive"`
	Plan         *PlanDraft       `json:"plan"`
	DeliveryFee  *decimal.Decimal `json:"delivery_fee"`
	ReturnFee    *decimal.Decimal `json:"return_fee"`
}

// EventInput is a lifecycle event submission against an order.
type EventInput struct {
	Type        string           `json:"type" validate:"required"`
	Reason      *string          `json:"reason"`
	Notes       *string          `json:"notes"`
	Penalty     *decimal.Decimal `json:"penalty"`
	ReturnFee   *decimal.Decimal `json:"return_fee"`
	BuybackRate *decimal.Decimal `json:"buyback_rate"`
}

// Snapshot is the frozen read-side view of an order with all its money
// history, handed to callers for display and document export.
type Snapshot struct {
	ID           string               `json:"id"`
	Code         string               `json:"code"`
	Type         enums.OrderType      `json:"type"`
	Status       enums.OrderStatus    `json:"status"`
	CustomerName string               `json:"customer_name"`
	Phone        *string              `json:"phone,omitempty"`
	Address      *string              `json:"address,omitempty"`
	Notes        *string              `json:"notes,omitempty"`
	Items        []models.OrderItem   `json:"items"`
	Plan         *models.PaymentPlan  `json:"plan,omitempty"`
	Ledger       []models.LedgerEntry `json:"ledger"`
	Payments     []models.Payment     `json:"payments"`
	Events       []models.Event       `json:"events"`
	CreatedAt    time.Time            `json:"created_at"`
}

// NewSnapshot flattens a fully preloaded order into its read-side view.
func NewSnapshot(order *models.Order) *Snapshot {
	if order == nil {
		return nil
	}
	return &Snapshot{
		ID:           order.ID.String(),
		Code:         order.Code,
		Type:         order.Type,
		Status:       order.Status,
		CustomerName: order.CustomerName,
		Phone:        order.Phone,
		Address:      order.Address,
		Notes:        order.Notes,
		Items:        order.Items,
		Plan:         order.Plan,
		Ledger:       order.Ledger,
		Payments:     order.Payments,
		Events:       order.Events,
		CreatedAt:    order.CreatedAt,
	}
}
