package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/contactevin2u/orderops-api/api/responses"
	"github.com/contactevin2u/orderops-api/api/validators"
	"github.com/contactevin2u/orderops-api/internal/orders"
	"github.com/contactevin2u/orderops-api/pkg/logger"
)

// EventCreate applies a terminal lifecycle event to an order.
func EventCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input orders.EventInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.ApplyEvent(r.Context(), chi.URLParam(r, "code"), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}
