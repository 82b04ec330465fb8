package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"placement-storefront/models"
	"placement-storefront/services/enrollment"
)

type State string

const (
	StateIdle          State = "idle"
	StateScriptLoading State = "script-loading"
	StateOrderCreated  State = "order-created"
	StateWidgetOpen    State = "widget-open"
	StateSucceeded     State = "terminal-success"
	StateFailed        State = "terminal-failure"
	StateCancelled     State = "terminal-cancelled"
)

func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// Intent is one checkout attempt: the order to mint and the pending record
// to leave behind for the success page.
type Intent struct {
	Scope   string
	Request OrderRequest
	Pending models.PendingEnrollment
}

type Result struct {
	State     State
	Order     *models.Order
	ReturnURL string
	Err       error
}

type Status struct {
	State            State
	ScriptReady      bool
	InFlight         bool
	OrderID          string
	PaymentSessionID string
	ReturnURL        string
	Err              error
}

// Handoff drives a single page instance through
// idle → script-loading → order-created → widget-open → terminal.
// Only one payment may be in flight at a time; a second Begin is rejected
// before any network call.
type Handoff struct {
	gateway OrderGateway
	widget  Widget
	loader  ScriptLoader
	pending *enrollment.Store
	mode    Mode
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	inFlight  atomic.Bool
	mountOnce sync.Once
	loaded    chan struct{}

	mu          sync.Mutex
	state       State
	scriptReady bool
	order       *models.Order
	returnURL   string
	lastErr     error
}

func NewHandoff(gateway OrderGateway, widget Widget, loader ScriptLoader, pending *enrollment.Store, mode Mode, logger *zap.Logger) *Handoff {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handoff{
		gateway: gateway,
		widget:  widget,
		loader:  loader,
		pending: pending,
		mode:    mode,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		loaded:  make(chan struct{}),
		state:   StateIdle,
	}
}

// Mount loads the checkout script. It runs at most once per handoff; when the
// script never loads the handoff stays in script-loading and Begin is refused.
func (h *Handoff) Mount() {
	h.mountOnce.Do(func() {
		h.mu.Lock()
		h.state = StateScriptLoading
		h.mu.Unlock()

		go func() {
			defer close(h.loaded)
			if err := h.loader.Load(h.ctx); err != nil {
				h.logger.Warn("checkout script unavailable", zap.Error(err))
				return
			}
			h.mu.Lock()
			h.scriptReady = true
			h.mu.Unlock()
		}()
	})
}

// Loaded is closed once the script load attempt finished.
func (h *Handoff) Loaded() <-chan struct{} {
	return h.loaded
}

func (h *Handoff) Mode() Mode {
	return h.mode
}

func (h *Handoff) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := Status{
		State:       h.state,
		ScriptReady: h.scriptReady,
		InFlight:    h.inFlight.Load(),
		ReturnURL:   h.returnURL,
		Err:         h.lastErr,
	}
	if h.order != nil {
		st.OrderID = h.order.OrderID
		st.PaymentSessionID = h.order.PaymentSessionID
	}
	return st
}

// Begin creates the order, records the pending enrollment and opens the
// widget. It returns once the widget is open; the terminal result arrives on
// the returned channel.
func (h *Handoff) Begin(ctx context.Context, intent Intent) (*models.Order, <-chan Result, error) {
	if !h.inFlight.CompareAndSwap(false, true) {
		return nil, nil, ErrCheckoutInFlight
	}

	h.mu.Lock()
	ready, state := h.scriptReady, h.state
	h.mu.Unlock()

	if state == StateSucceeded {
		h.inFlight.Store(false)
		return nil, nil, ErrHandoffComplete
	}
	if !ready {
		h.inFlight.Store(false)
		return nil, nil, ErrWidgetUnavailable
	}

	order, err := h.gateway.CreateOrder(ctx, intent.Request)
	if err != nil {
		h.logger.Error("order creation failed", zap.String("profile", intent.Scope), zap.Error(err))
		h.mu.Lock()
		h.lastErr = err
		h.mu.Unlock()
		h.inFlight.Store(false)
		if !errors.Is(err, ErrOrderCreation) {
			err = fmt.Errorf("%w: %v", ErrOrderCreation, err)
		}
		return nil, nil, err
	}

	h.mu.Lock()
	h.state = StateOrderCreated
	h.order = order
	h.returnURL = ""
	h.lastErr = nil
	h.mu.Unlock()

	h.recordPending(ctx, intent, order)

	h.mu.Lock()
	h.state = StateWidgetOpen
	h.mu.Unlock()

	h.logger.Info("checkout widget opened",
		zap.String("profile", intent.Scope),
		zap.String("order_id", order.OrderID),
		zap.String("mode", string(h.mode)))

	results := make(chan Result, 1)
	go h.await(intent.Scope, order, results)
	return order, results, nil
}

// Pay runs Begin and waits for the terminal result.
func (h *Handoff) Pay(ctx context.Context, intent Intent) (Result, error) {
	_, results, err := h.Begin(ctx, intent)
	if err != nil {
		return Result{}, err
	}
	select {
	case res := <-results:
		return res, res.Err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Close abandons the page instance. An open widget is released without
// touching the pending record, since the payment may still complete.
func (h *Handoff) Close() {
	h.cancel()
}

func (h *Handoff) recordPending(ctx context.Context, intent Intent, order *models.Order) {
	if h.pending == nil {
		return
	}
	rec := intent.Pending
	rec.OrderID = order.OrderID

	if err := h.pending.RememberSelection(ctx, intent.Scope, rec.Courses(), intent.Request.Bulk); err != nil {
		h.logger.Warn("failed to remember selected courses", zap.Error(err))
	}
	if err := h.pending.Save(ctx, intent.Scope, rec); err != nil {
		h.logger.Warn("failed to record pending enrollment", zap.String("order_id", order.OrderID), zap.Error(err))
	}
}

func (h *Handoff) await(scope string, order *models.Order, results chan<- Result) {
	outcome, err := h.widget.Checkout(h.ctx, h.mode, order.PaymentSessionID)

	res := Result{Order: order}
	switch {
	case err != nil && h.ctx.Err() != nil:
		h.logger.Info("checkout page abandoned with widget open", zap.String("order_id", order.OrderID))
		res.State = StateWidgetOpen
		res.Err = ErrHandoffAbandoned
	case err != nil:
		h.logger.Error("checkout widget error", zap.String("order_id", order.OrderID), zap.Error(err))
		res.State = StateFailed
		res.Err = err
	case outcome.Status == OutcomeSuccess:
		res.State = StateSucceeded
		res.ReturnURL = ReturnURL(order.OrderID)
	case outcome.Status == OutcomeCancelled:
		res.State = StateCancelled
		res.Err = fmt.Errorf("payment cancelled: %s", outcome.Message)
	default:
		res.State = StateFailed
		res.Err = fmt.Errorf("payment failed: %s", outcome.Message)
	}

	if res.State == StateFailed || res.State == StateCancelled {
		h.clearPending(scope, order.OrderID)
	}

	h.mu.Lock()
	h.state = res.State
	h.returnURL = res.ReturnURL
	h.lastErr = res.Err
	h.mu.Unlock()
	h.inFlight.Store(false)

	h.logger.Info("checkout finished",
		zap.String("order_id", order.OrderID),
		zap.String("state", string(res.State)))
	results <- res
}

func (h *Handoff) clearPending(scope, orderID string) {
	if h.pending == nil {
		return
	}
	if _, err := h.pending.ClearIf(context.Background(), scope, orderID); err != nil {
		h.logger.Warn("failed to clear pending enrollment", zap.String("order_id", orderID), zap.Error(err))
	}
}

// ReturnURL is where the browser goes after the widget reports completion.
// Enrollment itself is finalized there, after server-side confirmation.
func ReturnURL(orderID string) string {
	return "/payment/success?order_id=" + url.QueryEscape(orderID)
}
