package orders

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/contactevin2u/orderops-api/pkg/db"
	"github.com/contactevin2u/orderops-api/pkg/db/models"
	"github.com/contactevin2u/orderops-api/pkg/enums"
	pkgerrors "github.com/contactevin2u/orderops-api/pkg/errors"
)

// DefaultBuybackRate applies when a BUYBACK event does not name a rate.
var DefaultBuybackRate = decimal.NewFromFloat(0.5)

// ApplyEvent records a terminal lifecycle event and its ledger adjustments
// in one transaction. The event insert hits the one-terminal-event-per-order
// unique index and the status update is a compare-and-swap from ACTIVE, so
// concurrent duplicates lose at the storage layer rather than in memory.
func (s *service) ApplyEvent(ctx context.Context, code string, input EventInput) (*Snapshot, error) {
	eventType, err := enums.ParseEventType(input.Type)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event type")
	}
	if input.Penalty != nil && input.Penalty.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "penalty cannot be negative")
	}
	if input.ReturnFee != nil && input.ReturnFee.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return fee cannot be negative")
	}

	order, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ledgerRepo := s.ledgerRepo.WithTx(tx)
		planRepo := s.planRepo.WithTx(tx)

		event := &models.Event{
			OrderID:  order.ID,
			Type:     eventType,
			Terminal: true,
			Reason:   input.Reason,
			Notes:    input.Notes,
		}
		if err := repo.CreateEvent(ctx, event); err != nil {
			if db.IsUniqueViolation(err, models.EventTerminalConstraint) {
				return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "terminal event already recorded")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create event")
		}

		moved, err := repo.TransitionStatus(ctx, order.ID, eventType.TargetStatus())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition order status")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order %s is no longer active", order.Code))
		}

		if err := planRepo.Deactivate(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate payment plan")
		}

		for _, adjustment := range s.eventAdjustments(order, eventType, input) {
			if err := ledgerRepo.Create(ctx, &adjustment); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ledger adjustment")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, order.Code)
}

// eventAdjustments builds the ledger rows a terminal event carries: optional
// return fee and penalty, plus the buyback credit for BUYBACK events.
func (s *service) eventAdjustments(order *models.Order, eventType enums.EventType, input EventInput) []models.LedgerEntry {
	var entries []models.LedgerEntry

	if input.ReturnFee != nil && input.ReturnFee.IsPositive() {
		note := "Return trip fee"
		entries = append(entries, models.LedgerEntry{
			OrderID: order.ID,
			Kind:    enums.LedgerKindDeliveryReturn,
			Amount:  *input.ReturnFee,
			Note:    &note,
		})
	}
	if input.Penalty != nil && input.Penalty.IsPositive() {
		note := fmt.Sprintf("%s penalty", eventType)
		entries = append(entries, models.LedgerEntry{
			OrderID: order.ID,
			Kind:    enums.LedgerKindPenalty,
			Amount:  *input.Penalty,
			Note:    &note,
		})
	}

	if eventType == enums.EventTypeBuyback {
		credit := BuybackCredit(order.Items, input.BuybackRate)
		if credit.IsPositive() {
			note := "Buyback credit"
			entries = append(entries, models.LedgerEntry{
				OrderID: order.ID,
				Kind:    enums.LedgerKindBuybackCredit,
				Amount:  credit.Neg(),
				Note:    &note,
			})
		}
	}
	return entries
}

// BuybackCredit values the equipment taken back at rate on the dollar. The
// rate clamps to [0, 1] and falls back to DefaultBuybackRate when absent.
func BuybackCredit(items []models.OrderItem, rate *decimal.Decimal) decimal.Decimal {
	effective := DefaultBuybackRate
	if rate != nil {
		effective = *rate
	}
	if effective.IsNegative() {
		effective = decimal.Zero
	}
	one := decimal.NewFromInt(1)
	if effective.GreaterThan(one) {
		effective = one
	}

	credit := decimal.Zero
	for _, item := range items {
		credit = credit.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Qty))))
	}
	return credit.Mul(effective).Round(2)
}
