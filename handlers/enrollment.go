package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"placement-storefront/middleware"
	"placement-storefront/models"
	"placement-storefront/services/enrollment"
	"placement-storefront/utils"
)

// EnrollmentHandler exposes the pending record to the payment success page.
type EnrollmentHandler struct {
	pending *enrollment.Store
	logger  *zap.Logger
}

func NewEnrollmentHandler(pending *enrollment.Store, logger *zap.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{pending: pending, logger: logger}
}

func (h *EnrollmentHandler) GetPending(w http.ResponseWriter, r *http.Request) {
	rec, err := h.pending.Load(r.Context(), middleware.GetProfile(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if rec == nil {
		utils.SendErrorResponse(w, http.StatusNotFound, "No pending enrollment")
		return
	}
	utils.SendSuccessResponse(w, models.APIResponse{Data: rec})
}

// ClearPending is called by the success page once enrollment is finalized.
func (h *EnrollmentHandler) ClearPending(w http.ResponseWriter, r *http.Request) {
	if err := h.pending.Clear(r.Context(), middleware.GetProfile(r.Context())); err != nil {
		writeError(w, h.logger, err)
		return
	}
	utils.SendSuccessResponse(w, models.APIResponse{Message: "Pending enrollment cleared"})
}
