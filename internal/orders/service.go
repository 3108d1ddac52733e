package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/contactevin2u/orderops-api/internal/ledger"
	"github.com/contactevin2u/orderops-api/internal/payments"
	"github.com/contactevin2u/orderops-api/internal/plans"
	"github.com/contactevin2u/orderops-api/pkg/db"
	"github.com/contactevin2u/orderops-api/pkg/db/models"
	"github.com/contactevin2u/orderops-api/pkg/enums"
	pkgerrors "github.com/contactevin2u/orderops-api/pkg/errors"
	"github.com/contactevin2u/orderops-api/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns order intake, reads and the terminal lifecycle transitions.
type Service interface {
	Create(ctx context.Context, draft Draft) (*Snapshot, error)
	Get(ctx context.Context, code string) (*Snapshot, error)
	List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.Order, int64, error)
	ApplyEvent(ctx context.Context, code string, input EventInput) (*Snapshot, error)
	RecordPayment(ctx context.Context, code string, input PaymentInput) (*models.Payment, error)
	VoidPayment(ctx context.Context, code string, paymentID uuid.UUID, reason string) (*models.Payment, error)
}

// PaymentInput is a payment submission against an order.
type PaymentInput struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference *string         `json:"reference"`
	Notes     *string         `json:"notes"`
}

type service struct {
	tx          txRunner
	repo        Repository
	planRepo    plans.Repository
	ledgerRepo  ledger.Repository
	paymentRepo payments.Repository
	paymentSvc  payments.Service
}

// NewService wires the order service and its collaborating repositories.
func NewService(tx txRunner, repo Repository, planRepo plans.Repository, ledgerRepo ledger.Repository, paymentRepo payments.Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if planRepo == nil {
		return nil, fmt.Errorf("plans repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if paymentRepo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	paymentSvc, err := payments.NewService(paymentRepo)
	if err != nil {
		return nil, err
	}
	return &service{
		tx:          tx,
		repo:        repo,
		planRepo:    planRepo,
		ledgerRepo:  ledgerRepo,
		paymentRepo: paymentRepo,
		paymentSvc:  paymentSvc,
	}, nil
}

// Create validates the draft and persists the order, its items, its plan and
// the opening ledger entries in one transaction. A duplicate code surfaces as
// Conflict through the unique index, never a pre-check alone.
func (s *service) Create(ctx context.Context, draft Draft) (*Snapshot, error) {
	orderType, err := enums.ParseOrderType(draft.Type)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order type")
	}
	if draft.Code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order code is required")
	}
	if draft.CustomerName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if len(draft.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item")
	}
	for _, item := range draft.Items {
		if item.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
		}
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %q needs a positive qty", item.Name))
		}
		if item.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %q has a negative unit price", item.Name))
		}
	}
	var planMonthly decimal.Decimal
	if orderType.Recurring() {
		if draft.Plan == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s orders require a plan", orderType))
		}
		planMonthly = draft.Plan.MonthlyAmount
		if !planMonthly.IsPositive() {
			// No explicit amount: derive it from the per-item monthly rent.
			planMonthly = rentMonthlyTotal(draft.Items)
		}
		if !planMonthly.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan monthly amount must be positive")
		}
		if draft.Plan.TermMonths != nil && *draft.Plan.TermMonths <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan term months must be positive")
		}
		if draft.Plan.StartDate != nil && draft.Plan.EndDate != nil && draft.Plan.EndDate.Before(*draft.Plan.StartDate) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan end date precedes start date")
		}
	} else if draft.Plan != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s orders do not carry a plan", orderType))
	}

	var parentID *uuid.UUID
	if draft.ParentCode != nil && *draft.ParentCode != "" {
		parent, err := s.repo.FindByCode(ctx, *draft.ParentCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("parent order %s not found", *draft.ParentCode))
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parent order")
		}
		parentID = &parent.ID
	}

	order := &models.Order{
		Code:          draft.Code,
		ParentOrderID: parentID,
		Type:          orderType,
		Status:        enums.OrderStatusActive,
		CustomerName:  draft.CustomerName,
		Phone:         draft.Phone,
		Address:       draft.Address,
		Notes:         draft.Notes,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ledgerRepo := s.ledgerRepo.WithTx(tx)
		planRepo := s.planRepo.WithTx(tx)

		if err := repo.Create(ctx, order); err != nil {
			if db.IsUniqueViolation(err, models.OrderCodeConstraint) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("order code %s already exists", draft.Code))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		items := make([]models.OrderItem, 0, len(draft.Items))
		for _, item := range draft.Items {
			items = append(items, models.OrderItem{
				OrderID:     order.ID,
				SKU:         item.SKU,
				Name:        item.Name,
				Qty:         item.Qty,
				UnitPrice:   item.UnitPrice,
				RentMonthly: item.RentMonthly,
			})
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}

		if draft.Plan != nil {
			plan := &models.PaymentPlan{
				OrderID:       order.ID,
				Cadence:       enums.PlanCadenceMonthly,
				TermMonths:    draft.Plan.TermMonths,
				MonthlyAmount: planMonthly,
				StartDate:     draft.Plan.StartDate,
				EndDate:       draft.Plan.EndDate,
				Active:        true,
			}
			if err := planRepo.Create(ctx, plan); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment plan")
			}
		}

		for _, opening := range s.openingEntries(order, items, draft) {
			if err := ledgerRepo.Create(ctx, &opening); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create opening ledger entry")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, order.Code)
}

// rentMonthlyTotal sums rent_monthly times qty across the draft items.
func rentMonthlyTotal(items []ItemDraft) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.RentMonthly != nil {
			total = total.Add(item.RentMonthly.Mul(decimal.NewFromInt(int64(item.Qty))))
		}
	}
	return total
}

// openingEntries builds the ledger rows created together with the order:
// principal for OUTRIGHT/INSTALMENT plus any prepaid delivery fees.
func (s *service) openingEntries(order *models.Order, items []models.OrderItem, draft Draft) []models.LedgerEntry {
	var entries []models.LedgerEntry

	if order.Type == enums.OrderTypeOutright || order.Type == enums.OrderTypeInstalment {
		principal := decimal.Zero
		for _, item := range items {
			principal = principal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Qty))))
		}
		if principal.IsPositive() {
			note := "Items principal"
			entries = append(entries, models.LedgerEntry{
				OrderID: order.ID,
				Kind:    enums.LedgerKindInitialCharge,
				Amount:  principal,
				Note:    &note,
			})
		}
	}

	if draft.DeliveryFee != nil && draft.DeliveryFee.IsPositive() {
		note := "Delivery fee"
		entries = append(entries, models.LedgerEntry{
			OrderID: order.ID,
			Kind:    enums.LedgerKindDeliveryOutbound,
			Amount:  *draft.DeliveryFee,
			Note:    &note,
		})
	}
	if draft.ReturnFee != nil && draft.ReturnFee.IsPositive() {
		note := "Return trip fee"
		entries = append(entries, models.LedgerEntry{
			OrderID: order.ID,
			Kind:    enums.LedgerKindDeliveryReturn,
			Amount:  *draft.ReturnFee,
			Note:    &note,
		})
	}
	return entries
}

func (s *service) Get(ctx context.Context, code string) (*Snapshot, error) {
	order, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(order), nil
}

func (s *service) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.Order, int64, error) {
	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, total, nil
}

// RecordPayment persists a payment against the order. Validation of the
// amount lives in the payments service; this layer resolves the order.
func (s *service) RecordPayment(ctx context.Context, code string, input PaymentInput) (*models.Payment, error) {
	order, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return s.paymentSvc.Record(ctx, payments.RecordPaymentInput{
		OrderID:   order.ID,
		Amount:    input.Amount,
		Method:    enums.PaymentMethod(input.Method),
		Reference: input.Reference,
		Notes:     input.Notes,
	})
}

func (s *service) VoidPayment(ctx context.Context, code string, paymentID uuid.UUID, reason string) (*models.Payment, error) {
	order, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment.OrderID != order.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment does not belong to this order")
	}

	return s.paymentSvc.Void(ctx, paymentID, reason)
}

func (s *service) findByCode(ctx context.Context, code string) (*models.Order, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order code is required")
	}
	order, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", code))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
