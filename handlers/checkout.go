package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"placement-storefront/middleware"
	"placement-storefront/models"
	"placement-storefront/services/payment"
	"placement-storefront/services/payment/cashfree"
	"placement-storefront/utils"
)

type CheckoutHandler struct {
	checkout *payment.Checkout
	sessions *payment.Sessions
	widget   *cashfree.RelayWidget
	sdkURL   string
	logger   *zap.Logger
}

func NewCheckoutHandler(checkout *payment.Checkout, sessions *payment.Sessions, widget *cashfree.RelayWidget, sdkURL string, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		sessions: sessions,
		widget:   widget,
		sdkURL:   sdkURL,
		logger:   logger,
	}
}

// Mount starts a page instance for the flow and kicks off the SDK load.
// Anonymous callers are sent to sign in before anything is mounted.
func (h *CheckoutHandler) Mount(w http.ResponseWriter, r *http.Request) {
	if middleware.GetIdentity(r.Context()) == nil {
		writeError(w, h.logger, payment.ErrUnauthenticated)
		return
	}

	flow, err := payment.ParseFlow(r.URL.Query().Get("flow"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	handoff := h.sessions.Mount(middleware.GetProfile(r.Context()), flow)
	st := handoff.Status()
	utils.SendJSON(w, http.StatusOK, models.CheckoutMountResponse{
		Flow:        string(flow),
		State:       string(st.State),
		Mode:        string(handoff.Mode()),
		SDKURL:      h.sdkURL,
		ScriptReady: st.ScriptReady,
	})
}

// PayCart checks out everything in the profile's cart as one bulk order.
func (h *CheckoutHandler) PayCart(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	profile := middleware.GetProfile(ctx)
	intent, err := h.checkout.PrepareCart(ctx, profile, middleware.GetIdentity(ctx), req.TermsAccepted)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.begin(w, r, payment.FlowCart, intent)
}

// Enroll checks out a single course, or the featured course when no id is
// given.
func (h *CheckoutHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req models.EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	courseID := req.CourseID.String()
	if courseID == "" {
		courseID = r.URL.Query().Get("course_id")
	}

	ctx := r.Context()
	profile := middleware.GetProfile(ctx)
	intent, err := h.checkout.PrepareEnrollment(ctx, profile, middleware.GetIdentity(ctx), courseID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.begin(w, r, payment.FlowEnroll, intent)
}

func (h *CheckoutHandler) begin(w http.ResponseWriter, r *http.Request, flow payment.Flow, intent payment.Intent) {
	ctx := r.Context()
	handoff := h.sessions.GetOrMount(intent.Scope, flow)

	select {
	case <-handoff.Loaded():
	case <-ctx.Done():
		return
	}

	// The order must outlive a client that disconnects mid-request.
	order, _, err := handoff.Begin(context.WithoutCancel(ctx), intent)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	utils.SendJSON(w, http.StatusOK, models.CheckoutSessionResponse{
		OrderID:          order.OrderID,
		PaymentSessionID: order.PaymentSessionID,
		Mode:             string(handoff.Mode()),
		RedirectTarget:   cashfree.RedirectTarget,
		SDKURL:           h.sdkURL,
	})
}

func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	flow, err := payment.ParseFlow(r.URL.Query().Get("flow"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := models.CheckoutStatusResponse{Flow: string(flow), State: string(payment.StateIdle)}
	if handoff, ok := h.sessions.Get(middleware.GetProfile(r.Context()), flow); ok {
		st := handoff.Status()
		resp.State = string(st.State)
		resp.OrderID = st.OrderID
		resp.ReturnURL = st.ReturnURL
		if st.Err != nil {
			resp.Error = st.Err.Error()
		}
	}
	utils.SendJSON(w, http.StatusOK, resp)
}

// Result relays what the hosted checkout reported in the browser back to the
// waiting handoff.
func (h *CheckoutHandler) Result(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PaymentSessionID == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "payment_session_id is required")
		return
	}

	outcome := cashfree.ParseOutcome(req.Status, req.Message)
	delivered := h.widget.Deliver(req.PaymentSessionID, outcome)

	resp := models.CheckoutResultResponse{Delivered: delivered, Status: string(outcome.Status)}
	if outcome.Status == payment.OutcomeSuccess {
		if orderID := h.orderFor(r, req.PaymentSessionID); orderID != "" {
			resp.ReturnURL = payment.ReturnURL(orderID)
		}
	}

	h.logger.Info("checkout outcome relayed",
		zap.String("status", string(outcome.Status)),
		zap.Bool("delivered", delivered))
	utils.SendJSON(w, http.StatusOK, resp)
}

func (h *CheckoutHandler) orderFor(r *http.Request, paymentSessionID string) string {
	profile := middleware.GetProfile(r.Context())
	for _, flow := range []payment.Flow{payment.FlowCart, payment.FlowEnroll} {
		if handoff, ok := h.sessions.Get(profile, flow); ok {
			if st := handoff.Status(); st.PaymentSessionID == paymentSessionID {
				return st.OrderID
			}
		}
	}
	return ""
}
