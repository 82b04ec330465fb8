package cashfree

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"placement-storefront/services/payment"
)

var ErrDuplicateSession = errors.New("checkout already open for this payment session")

// earlyOutcomeTTL bounds how long an outcome reported before its checkout
// registered is kept around.
const earlyOutcomeTTL = time.Hour

type earlyOutcome struct {
	outcome payment.Outcome
	at      time.Time
}

// RelayWidget stands in for the in-browser Cashfree drop-in. The browser opens
// the hosted checkout with the session id it was handed and posts the outcome
// back; Deliver routes that outcome to the waiting Checkout call.
type RelayWidget struct {
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	waiters map[string]chan payment.Outcome
	early   map[string]earlyOutcome
}

func NewRelayWidget(logger *zap.Logger) *RelayWidget {
	return &RelayWidget{
		logger:  logger,
		now:     time.Now,
		waiters: make(map[string]chan payment.Outcome),
		early:   make(map[string]earlyOutcome),
	}
}

func (w *RelayWidget) Checkout(ctx context.Context, mode payment.Mode, paymentSessionID string) (payment.Outcome, error) {
	w.mu.Lock()
	if e, ok := w.early[paymentSessionID]; ok {
		delete(w.early, paymentSessionID)
		w.mu.Unlock()
		return e.outcome, nil
	}
	if _, ok := w.waiters[paymentSessionID]; ok {
		w.mu.Unlock()
		return payment.Outcome{}, ErrDuplicateSession
	}
	ch := make(chan payment.Outcome, 1)
	w.waiters[paymentSessionID] = ch
	w.mu.Unlock()

	w.logger.Debug("waiting for checkout outcome",
		zap.String("payment_session_id", paymentSessionID),
		zap.String("mode", string(mode)))

	select {
	case outcome := <-ch:
		return outcome, nil
	case <-ctx.Done():
		w.mu.Lock()
		if w.waiters[paymentSessionID] == ch {
			delete(w.waiters, paymentSessionID)
		}
		w.mu.Unlock()
		return payment.Outcome{}, ctx.Err()
	}
}

// Deliver hands the browser-reported outcome to the checkout waiting on
// paymentSessionID. It reports whether a checkout was waiting.
func (w *RelayWidget) Deliver(paymentSessionID string, outcome payment.Outcome) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if ch, ok := w.waiters[paymentSessionID]; ok {
		delete(w.waiters, paymentSessionID)
		ch <- outcome
		return true
	}

	w.sweepLocked()
	w.early[paymentSessionID] = earlyOutcome{outcome: outcome, at: w.now()}
	w.logger.Debug("outcome arrived before checkout registered",
		zap.String("payment_session_id", paymentSessionID))
	return false
}

func (w *RelayWidget) Waiting(paymentSessionID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.waiters[paymentSessionID]
	return ok
}

func (w *RelayWidget) sweepLocked() {
	cutoff := w.now().Add(-earlyOutcomeTTL)
	for id, e := range w.early {
		if e.at.Before(cutoff) {
			delete(w.early, id)
		}
	}
}

// ParseOutcome maps the status string the browser posts. Unknown values are
// treated as failure.
func ParseOutcome(status, message string) payment.Outcome {
	switch payment.OutcomeStatus(status) {
	case payment.OutcomeSuccess:
		return payment.Outcome{Status: payment.OutcomeSuccess, Message: message}
	case payment.OutcomeCancelled:
		return payment.Outcome{Status: payment.OutcomeCancelled, Message: message}
	}
	if message == "" {
		message = "payment failed"
	}
	return payment.Outcome{Status: payment.OutcomeFailure, Message: message}
}
