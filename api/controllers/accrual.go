package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/contactevin2u/orderops-api/api/responses"
	"github.com/contactevin2u/orderops-api/api/validators"
	"github.com/contactevin2u/orderops-api/internal/accrual"
	"github.com/contactevin2u/orderops-api/internal/orders"
	pkgerrors "github.com/contactevin2u/orderops-api/pkg/errors"
	"github.com/contactevin2u/orderops-api/pkg/logger"
)

// OrderAccrue materializes any elapsed monthly charges for one order.
func OrderAccrue(repo orders.Repository, svc accrual.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asOf, err := validators.ParseQueryDate(r, "as_of", time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
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

		created, err := svc.Accrue(r.Context(), order.ID, asOf)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"order_code":      order.Code,
			"as_of":           asOf,
			"entries_created": created,
		})
	}
}
