package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contactevin2u/orderops-api/internal/balance"
	"github.com/contactevin2u/orderops-api/internal/orders"
	"github.com/contactevin2u/orderops-api/pkg/db/models"
	pkgerrors "github.com/contactevin2u/orderops-api/pkg/errors"
	"github.com/contactevin2u/orderops-api/pkg/pagination"
)

// AgingRow is one order with money still owing, bucketed by how long the
// order has been open as of the report date.
type AgingRow struct {
	Code         string          `json:"code"`
	CustomerName string          `json:"customer_name"`
	DaysOpen     int             `json:"days_open"`
	Bucket       string          `json:"bucket"`
	Outstanding  decimal.Decimal `json:"outstanding"`
}

// AgingReport groups outstanding balances into the standard receivables
// buckets.
type AgingReport struct {
	AsOf    time.Time                  `json:"as_of"`
	Rows    []AgingRow                 `json:"rows"`
	Buckets map[string]decimal.Decimal `json:"buckets"`
	Total   decimal.Decimal            `json:"total"`
}

var agingBuckets = []string{"0-30", "31-60", "61-90", "90+"}

// Service builds read-only receivables reports.
type Service interface {
	Aging(ctx context.Context, asOf time.Time) (*AgingReport, error)
}

type service struct {
	orderSvc   orders.Service
	calculator *balance.Calculator
	pageSize   int
}

// NewService wires the reports service.
func NewService(orderSvc orders.Service, calculator *balance.Calculator) (Service, error) {
	if orderSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if calculator == nil {
		return nil, fmt.Errorf("balance calculator required")
	}
	return &service{orderSvc: orderSvc, calculator: calculator, pageSize: 200}, nil
}

// Aging walks every order and buckets whatever is still owed as of asOf.
// Terminal orders with a cleared balance drop out of the report.
func (s *service) Aging(ctx context.Context, asOf time.Time) (*AgingReport, error) {
	report := &AgingReport{
		AsOf:    asOf,
		Rows:    []AgingRow{},
		Buckets: map[string]decimal.Decimal{},
		Total:   decimal.Zero,
	}
	for _, bucket := range agingBuckets {
		report.Buckets[bucket] = decimal.Zero
	}

	for page := 1; ; page++ {
		params := pagination.Params{Page: page, PageSize: s.pageSize}
		rows, total, err := s.orderSvc.List(ctx, orders.ListFilter{}, params)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			order := &rows[i]
			openedAt := openedDate(order)
			if openedAt.After(asOf) {
				continue
			}
			outstanding, err := s.calculator.Outstanding(ctx, order, asOf)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err,
					fmt.Sprintf("compute outstanding for %s", order.Code))
			}
			if !outstanding.IsPositive() {
				continue
			}

			daysOpen := int(asOf.Sub(openedAt).Hours() / 24)
			bucket := bucketFor(daysOpen)
			report.Rows = append(report.Rows, AgingRow{
				Code:         order.Code,
				CustomerName: order.CustomerName,
				DaysOpen:     daysOpen,
				Bucket:       bucket,
				Outstanding:  outstanding,
			})
			report.Buckets[bucket] = report.Buckets[bucket].Add(outstanding)
			report.Total = report.Total.Add(outstanding)
		}
		if int64(page*s.pageSize) >= total {
			break
		}
	}
	return report, nil
}

// openedDate anchors aging on the billing clock: the plan start date when
// one exists, otherwise the order creation date.
func openedDate(order *models.Order) time.Time {
	if order.Plan != nil && order.Plan.StartDate != nil {
		return *order.Plan.StartDate
	}
	return order.CreatedAt
}

func bucketFor(daysOpen int) string {
	switch {
	case daysOpen <= 30:
		return "0-30"
	case daysOpen <= 60:
		return "31-60"
	case daysOpen <= 90:
		return "61-90"
	default:
		return "90+"
	}
}
