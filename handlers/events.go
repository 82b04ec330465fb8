package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"placement-storefront/middleware"
	"placement-storefront/models"
	"placement-storefront/services/cart"
	"placement-storefront/utils"
)

const (
	CartUpdatedEvent  = "cartUpdated"
	heartbeatInterval = 25 * time.Second
)

// EventsHandler streams cart changes to every open page of the same profile.
type EventsHandler struct {
	carts  *cart.Registry
	logger *zap.Logger
}

func NewEventsHandler(carts *cart.Registry, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{carts: carts, logger: logger}
}

func (h *EventsHandler) CartEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	ctx := r.Context()
	store := h.carts.Get(ctx, middleware.GetProfile(ctx))

	events := make(chan models.CartEvent, 16)
	cancel := store.Subscribe(func(ev models.CartEvent) {
		select {
		case events <- ev:
		default:
			// Slow reader; the next event carries the full id list anyway.
		}
	})
	defer cancel()

	// The stream outlives the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, models.CartEvent{CourseIDs: store.List(), Version: store.Version()}); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if err := writeEvent(w, ev); err != nil {
				h.logger.Debug("cart event stream closed", zap.Error(err))
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, ev models.CartEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", CartUpdatedEvent, data)
	return err
}
