package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/minsukang/storefront-backend/api/middleware"
	"github.com/minsukang/storefront-backend/api/responses"
	"github.com/minsukang/storefront-backend/api/validators"
	paymentsvc "github.com/minsukang/storefront-backend/internal/payments"
	pkgerrors "github.com/minsukang/storefront-backend/pkg/errors"
	"github.com/minsukang/storefront-backend/pkg/logger"
)

// CreatePaymentSession hands the widget payload for a pending order to the client.
func CreatePaymentSession(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerName := middleware.UserNameFromContext(r.Context())

		session, err := svc.CreateSession(r.Context(), userID, customerName, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}
