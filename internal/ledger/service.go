package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contactevin2u/orderops-api/pkg/db"
	"github.com/contactevin2u/orderops-api/pkg/db/models"
	"github.com/contactevin2u/orderops-api/pkg/enums"
	pkgerrors "github.com/contactevin2u/orderops-api/pkg/errors"
	"github.com/contactevin2u/orderops-api/pkg/period"
)

// Service records charges and credits against an order's ledger.
type Service interface {
	RecordCharge(ctx context.Context, input RecordChargeInput) (*models.LedgerEntry, error)
	Entries(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error)
}

// RecordChargeInput captures the immutable data a ledger entry requires.
// Period is required for MONTHLY_CHARGE entries and disallowed otherwise.
type RecordChargeInput struct {
	OrderID uuid.UUID
	Kind    enums.LedgerKind
	Amount  decimal.Decimal
	Period  *string
	Note    *string
}

type service struct {
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RecordCharge(ctx context.Context, input RecordChargeInput) (*models.LedgerEntry, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid ledger kind %q", input.Kind))
	}
	if input.Kind.RequiresPeriod() {
		if input.Period == nil || !period.ValidLabel(*input.Period) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "monthly charge requires a YYYY-MM period")
		}
	} else if input.Period != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s entries do not carry a period", input.Kind))
	}

	entry := &models.LedgerEntry{
		OrderID: input.OrderID,
		Kind:    input.Kind,
		Amount:  input.Amount,
		Period:  input.Period,
		Note:    input.Note,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		if db.IsUniqueViolation(err, models.LedgerMonthlyPeriodConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err,
				fmt.Sprintf("monthly charge for period %s already recorded", *input.Period))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ledger entry")
	}
	return entry, nil
}

func (s *service) Entries(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	entries, err := s.repo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}
	return entries, nil
}
