package accrual

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/contactevin2u/orderops-api/internal/ledger"
	"github.com/contactevin2u/orderops-api/internal/plans"
	"github.com/contactevin2u/orderops-api/pkg/db/models"
	"github.com/contactevin2u/orderops-api/pkg/enums"
	pkgerrors "github.com/contactevin2u/orderops-api/pkg/errors"
	"github.com/contactevin2u/orderops-api/pkg/metrics"
	"github.com/contactevin2u/orderops-api/pkg/period"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service materializes elapsed monthly charges as ledger entries, exactly
// once per calendar period.
type Service interface {
	Accrue(ctx context.Context, orderID uuid.UUID, asOf time.Time) (int, error)
	AccrueAll(ctx context.Context, asOf time.Time, batchSize int) (int, error)
}

type service struct {
	tx         txRunner
	planRepo   plans.Repository
	ledgerRepo ledger.Repository
	metrics    *metrics.AccrualMetrics
	now        func() time.Time
}

// NewService wires the accrual generator. Metrics may be nil.
func NewService(tx txRunner, planRepo plans.Repository, ledgerRepo ledger.Repository, m *metrics.AccrualMetrics) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if planRepo == nil {
		return nil, fmt.Errorf("plan repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{
		tx:         tx,
		planRepo:   planRepo,
		ledgerRepo: ledgerRepo,
		metrics:    m,
		now:        time.Now,
	}, nil
}

// Accrue appends one MONTHLY_CHARGE entry for every elapsed period that has
// no entry yet. The whole batch commits atomically; calling again with the
// same asOf creates nothing. Returns the number of entries created.
func (s *service) Accrue(ctx context.Context, orderID uuid.UUID, asOf time.Time) (int, error) {
	if orderID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	created := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		planRepo := s.planRepo.WithTx(tx)
		ledgerRepo := s.ledgerRepo.WithTx(tx)

		plan, err := planRepo.FindByOrderID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil // no plan, nothing to accrue
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment plan")
		}
		if !plan.Active || plan.MonthlyAmount.IsZero() {
			return nil
		}
		if plan.StartDate == nil {
			// First accrual starts the clock; not retroactive.
			start := s.now()
			if err := planRepo.SetStartDate(ctx, plan, start); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set plan start date")
			}
		}

		existing, err := ledgerRepo.MonthlyPeriods(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load accrued periods")
		}

		for _, label := range DuePeriods(plan, asOf) {
			if _, ok := existing[label]; ok {
				continue
			}
			label := label
			note := fmt.Sprintf("Monthly %s", label)
			entry := &models.LedgerEntry{
				OrderID: orderID,
				Kind:    enums.LedgerKindMonthlyCharge,
				Amount:  plan.MonthlyAmount,
				Period:  &label,
				Note:    &note,
			}
			// A concurrent run may have won this period after the pre-check;
			// the insert resolves that race itself so the surrounding
			// transaction stays healthy.
			wrote, err := ledgerRepo.CreateIfAbsent(ctx, entry)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create monthly charge")
			}
			if wrote {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.metrics.AddEntriesCreated(created)
	return created, nil
}

// AccrueAll walks every order with an active plan and accrues it. Each order
// commits in its own transaction so one failure never poisons the rest.
func (s *service) AccrueAll(ctx context.Context, asOf time.Time, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 200
	}

	total := 0
	for offset := 0; ; offset += batchSize {
		ids, err := s.planRepo.ListActiveOrderIDs(ctx, batchSize, offset)
		if err != nil {
			return total, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active plans")
		}
		if len(ids) == 0 {
			return total, nil
		}
		for _, id := range ids {
			created, err := s.Accrue(ctx, id, asOf)
			if err != nil {
				return total, err
			}
			total += created
		}
	}
}

// DuePeriods enumerates the "YYYY-MM" labels elapsed under the no-proration
// rule, bounded by the plan end date and capped by its term.
func DuePeriods(plan *models.PaymentPlan, asOf time.Time) []string {
	if plan == nil || plan.StartDate == nil {
		return nil
	}
	until := asOf
	if plan.EndDate != nil && plan.EndDate.Before(until) {
		until = *plan.EndDate
	}
	months := period.ElapsedMonths(*plan.StartDate, until)
	if plan.TermMonths != nil && months > *plan.TermMonths {
		months = *plan.TermMonths
	}
	return period.Sequence(*plan.StartDate, months)
}
