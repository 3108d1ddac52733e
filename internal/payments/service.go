package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contactevin2u/orderops-api/pkg/db/models"
	"github.com/contactevin2u/orderops-api/pkg/enums"
	pkgerrors "github.com/contactevin2u/orderops-api/pkg/errors"
)

// Service registers and voids payments against an order.
type Service interface {
	Record(ctx context.Context, input RecordPaymentInput) (*models.Payment, error)
	Void(ctx context.Context, paymentID uuid.UUID, reason string) (*models.Payment, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
}

// RecordPaymentInput captures a payment received against an order.
type RecordPaymentInput struct {
	OrderID   uuid.UUID
	Amount    decimal.Decimal
	Method    enums.PaymentMethod
	Reference *string
	Notes     *string
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires a payments service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Record(ctx context.Context, input RecordPaymentInput) (*models.Payment, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	method := input.Method
	if method == "" {
		method = enums.PaymentMethodCash
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.Method))
	}

	payment := &models.Payment{
		OrderID:   input.OrderID,
		Amount:    input.Amount,
		Method:    method,
		Reference: input.Reference,
		Notes:     input.Notes,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
	}
	return payment, nil
}

func (s *service) Void(ctx context.Context, paymentID uuid.UUID, reason string) (*models.Payment, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}

	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "payment not found")
	}
	if payment.Voided {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment already voided")
	}

	now := s.now()
	payment.Voided = true
	payment.VoidedAt = &now
	if reason != "" {
		payment.VoidReason = &reason
	}
	if err := s.repo.MarkVoided(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void payment")
	}
	return payment, nil
}

func (s *service) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	rows, err := s.repo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return rows, nil
}
