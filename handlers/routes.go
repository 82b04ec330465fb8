package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Cart       *CartHandler
	Events     *EventsHandler
	Courses    *CourseHandler
	Checkout   *CheckoutHandler
	Enrollment *EnrollmentHandler
	Health     *HealthHandler
}

// Register mounts the storefront API on r. limit wraps the endpoints that
// create orders; pass nil to leave them unlimited.
func (h *Handlers) Register(r *mux.Router, limit func(http.Handler) http.Handler) {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", h.Health.Health).Methods(http.MethodGet)
	api.HandleFunc("/courses/featured", h.Courses.Featured).Methods(http.MethodGet)

	api.HandleFunc("/cart", h.Cart.GetCart).Methods(http.MethodGet)
	api.HandleFunc("/cart", h.Cart.AddItem).Methods(http.MethodPost)
	api.HandleFunc("/cart", h.Cart.Clear).Methods(http.MethodDelete)
	api.HandleFunc("/cart/remove", h.Cart.RemoveItem).Methods(http.MethodPost)
	api.HandleFunc("/cart/events", h.Events.CartEvents).Methods(http.MethodGet)

	api.HandleFunc("/checkout/mount", h.Checkout.Mount).Methods(http.MethodPost)
	api.Handle("/checkout", limit(http.HandlerFunc(h.Checkout.PayCart))).Methods(http.MethodPost)
	api.Handle("/enroll", limit(http.HandlerFunc(h.Checkout.Enroll))).Methods(http.MethodPost)
	api.HandleFunc("/checkout/status", h.Checkout.Status).Methods(http.MethodGet)
	api.HandleFunc("/checkout/result", h.Checkout.Result).Methods(http.MethodPost)

	api.HandleFunc("/enrollment/pending", h.Enrollment.GetPending).Methods(http.MethodGet)
	api.HandleFunc("/enrollment/pending", h.Enrollment.ClearPending).Methods(http.MethodDelete)
}
