package payment

import (
	"context"
	"errors"

	"placement-storefront/models"
)

var (
	ErrOrderCreation     = errors.New("could not create order")
	ErrCheckoutInFlight  = errors.New("a payment is already in progress")
	ErrWidgetUnavailable = errors.New("checkout widget not loaded")
	ErrHandoffComplete   = errors.New("payment already completed for this page")
	ErrHandoffAbandoned  = errors.New("payment page abandoned")
)

// Mode is the hosted checkout environment. It must match the environment the
// payment session was minted against on the server.
type Mode string

const (
	ModeSandbox    Mode = "sandbox"
	ModeProduction Mode = "production"
)

// ParseMode treats anything other than "production" as sandbox.
func ParseMode(s string) Mode {
	if s == string(ModeProduction) {
		return ModeProduction
	}
	return ModeSandbox
}

type OutcomeStatus string

const (
	OutcomeSuccess   OutcomeStatus = "success"
	OutcomeFailure   OutcomeStatus = "failure"
	OutcomeCancelled OutcomeStatus = "cancelled"
)

// Outcome is what the hosted widget reported. Success means the user finished
// the widget interaction, not that the payment is confirmed.
type Outcome struct {
	Status  OutcomeStatus
	Message string
}

type OrderRequest struct {
	CourseIDs []string
	Amount    int64
	Currency  string
	Customer  models.Customer
	Bulk      bool
}

// OrderGateway mints an order and its payment session token.
type OrderGateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*models.Order, error)
}

// Widget opens the hosted checkout for a payment session and blocks until it
// reports an outcome.
type Widget interface {
	Checkout(ctx context.Context, mode Mode, paymentSessionID string) (Outcome, error)
}

// ScriptLoader makes the hosted checkout SDK available.
type ScriptLoader interface {
	Load(ctx context.Context) error
}
