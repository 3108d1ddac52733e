package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/contactevin2u/orderops-api/api/responses"
	"github.com/contactevin2u/orderops-api/api/validators"
	"github.com/contactevin2u/orderops-api/internal/ledger"
	"github.com/contactevin2u/orderops-api/internal/orders"
	"github.com/contactevin2u/orderops-api/pkg/enums"
	pkgerrors "github.com/contactevin2u/orderops-api/pkg/errors"
	"github.com/contactevin2u/orderops-api/pkg/logger"
)

type adjustmentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Note   *string         `json:"note"`
}

// AdjustmentCreate appends a manual ADJUSTMENT entry to an order's ledger.
// Negative amounts credit the customer; the entry is append-only like every
// other charge, so corrections of corrections stack rather than overwrite.
func AdjustmentCreate(repo orders.Repository, svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input adjustmentRequest
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.Amount.IsZero() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "adjustment amount must be non-zero"))
			return
		}

		order, err := repo.FindByCode(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order"))
			return
		}

		entry, err := svc.RecordCharge(r.Context(), ledger.RecordChargeInput{
			OrderID: order.ID,
			Kind:    enums.LedgerKindAdjustment,
			Amount:  input.Amount,
			Note:    input.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}
