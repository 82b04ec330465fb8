package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"placement-storefront/services/catalog"
	"placement-storefront/services/payment"
	"placement-storefront/utils"
)

// SignInPath is where unauthenticated checkout attempts are sent.
const SignInPath = "/auth"

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, payment.ErrUnauthenticated):
		utils.SendRedirectResponse(w, http.StatusUnauthorized, "Please sign in to continue", SignInPath)
	case errors.Is(err, payment.ErrEmptyCart),
		errors.Is(err, payment.ErrTermsNotAccepted):
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, payment.ErrAlreadyEnrolled),
		errors.Is(err, payment.ErrCheckoutInFlight),
		errors.Is(err, payment.ErrHandoffComplete):
		utils.SendErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, catalog.ErrCourseNotFound):
		utils.SendErrorResponse(w, http.StatusNotFound, "Course not found")
	case errors.Is(err, payment.ErrOrderCreation):
		logger.Error("order creation failed", zap.Error(err))
		utils.SendErrorResponse(w, http.StatusBadGateway, "Could not start payment. Please try again.")
	case errors.Is(err, catalog.ErrCatalogUnavailable):
		logger.Error("catalog unavailable", zap.Error(err))
		utils.SendErrorResponse(w, http.StatusBadGateway, "Course catalog is unavailable")
	case errors.Is(err, payment.ErrWidgetUnavailable):
		utils.SendErrorResponse(w, http.StatusServiceUnavailable, "Payment system is still loading. Please try again.")
	default:
		logger.Error("unhandled request error", zap.Error(err))
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
	}
}
