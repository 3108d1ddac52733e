package balance

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contactevin2u/orderops-api/internal/accrual"
	"github.com/contactevin2u/orderops-api/internal/ledger"
	"github.com/contactevin2u/orderops-api/internal/payments"
	"github.com/contactevin2u/orderops-api/pkg/db/models"
	pkgerrors "github.com/contactevin2u/orderops-api/pkg/errors"
)

// Breakdown is the point-in-time money summary for one order. Outstanding is
// computed from persisted ledger entries only; ProjectedAccrual reports how
// much recurring charge has elapsed but is not yet materialized, so a caller
// can tell when it needs to run the accrual generator before trusting
// Outstanding as of today.
type Breakdown struct {
	LedgerTotal      decimal.Decimal `json:"ledger_total"`
	Paid             decimal.Decimal `json:"paid"`
	Outstanding      decimal.Decimal `json:"outstanding"`
	ProjectedAccrual decimal.Decimal `json:"projected_accrual"`
	AsOf             time.Time       `json:"as_of"`
}

// Calculator computes outstanding balances. It is read-only: it never writes
// ledger entries, and orders are fully independent of one another.
type Calculator struct {
	ledgerRepo   ledger.Repository
	paymentsRepo payments.Repository
}

// NewCalculator wires the balance calculator.
func NewCalculator(ledgerRepo ledger.Repository, paymentsRepo payments.Repository) (*Calculator, error) {
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if paymentsRepo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	return &Calculator{ledgerRepo: ledgerRepo, paymentsRepo: paymentsRepo}, nil
}

// Outstanding returns max(0, ledger − non-voided payments) rounded to 2dp.
func (c *Calculator) Outstanding(ctx context.Context, order *models.Order, asOf time.Time) (decimal.Decimal, error) {
	breakdown, err := c.Compute(ctx, order, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return breakdown.Outstanding, nil
}

// Compute returns the full money breakdown for the order as of the given
// date.
func (c *Calculator) Compute(ctx context.Context, order *models.Order, asOf time.Time) (*Breakdown, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}

	ledgerTotal, err := c.ledgerRepo.SumByOrderID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum ledger entries")
	}
	paid, err := c.paymentsRepo.SumPaidByOrderID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum payments")
	}

	outstanding := ledgerTotal.Sub(paid).Round(2)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}

	projected, err := c.projectedAccrual(ctx, order, asOf)
	if err != nil {
		return nil, err
	}

	return &Breakdown{
		LedgerTotal:      ledgerTotal.Round(2),
		Paid:             paid.Round(2),
		Outstanding:      outstanding,
		ProjectedAccrual: projected,
		AsOf:             asOf,
	}, nil
}

// projectedAccrual values the elapsed-but-unmaterialized monthly periods for
// orders with an active plan.
func (c *Calculator) projectedAccrual(ctx context.Context, order *models.Order, asOf time.Time) (decimal.Decimal, error) {
	plan := order.Plan
	if !order.Type.Recurring() || plan == nil || !plan.Active || plan.StartDate == nil || plan.MonthlyAmount.IsZero() {
		return decimal.Zero, nil
	}

	due := accrual.DuePeriods(plan, asOf)
	if len(due) == 0 {
		return decimal.Zero, nil
	}

	existing, err := c.ledgerRepo.MonthlyPeriods(ctx, order.ID)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load accrued periods")
	}

	missing := 0
	for _, label := range due {
		if _, ok := existing[label]; !ok {
			missing++
		}
	}
	return plan.MonthlyAmount.Mul(decimal.NewFromInt(int64(missing))).Round(2), nil
}
