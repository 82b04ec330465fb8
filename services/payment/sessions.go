package payment

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"placement-storefront/services/enrollment"
)

type Flow string

const (
	FlowCart   Flow = "cart"
	FlowEnroll Flow = "enroll"
)

func ParseFlow(s string) (Flow, error) {
	switch Flow(s) {
	case FlowCart, FlowEnroll:
		return Flow(s), nil
	case "":
		return FlowCart, nil
	}
	return "", fmt.Errorf("unknown checkout flow %q", s)
}

type sessionKey struct {
	scope string
	flow  Flow
}

type sessionEntry struct {
	handoff   *Handoff
	mountedAt time.Time
}

// Sessions tracks the mounted page instance for each profile and flow.
// Mounting again means the previous page is gone and replaces its handoff.
type Sessions struct {
	gateway OrderGateway
	widget  Widget
	loader  ScriptLoader
	pending *enrollment.Store
	mode    Mode
	logger  *zap.Logger

	mu       sync.Mutex
	handoffs map[sessionKey]sessionEntry
}

func NewSessions(gateway OrderGateway, widget Widget, loader ScriptLoader, pending *enrollment.Store, mode Mode, logger *zap.Logger) *Sessions {
	return &Sessions{
		gateway:  gateway,
		widget:   widget,
		loader:   loader,
		pending:  pending,
		mode:     mode,
		logger:   logger,
		handoffs: make(map[sessionKey]sessionEntry),
	}
}

func (s *Sessions) Mode() Mode {
	return s.mode
}

func (s *Sessions) Mount(scope string, flow Flow) *Handoff {
	h := s.newHandoff(scope, flow)

	key := sessionKey{scope: scope, flow: flow}
	s.mu.Lock()
	prev, ok := s.handoffs[key]
	s.handoffs[key] = sessionEntry{handoff: h, mountedAt: time.Now()}
	s.mu.Unlock()

	if ok {
		prev.handoff.Close()
	}
	h.Mount()
	return h
}

// GetOrMount returns the mounted handoff for scope and flow, mounting one if
// there is none. Concurrent callers always share the same handoff.
func (s *Sessions) GetOrMount(scope string, flow Flow) *Handoff {
	key := sessionKey{scope: scope, flow: flow}

	s.mu.Lock()
	if e, ok := s.handoffs[key]; ok {
		s.mu.Unlock()
		return e.handoff
	}
	h := s.newHandoff(scope, flow)
	s.handoffs[key] = sessionEntry{handoff: h, mountedAt: time.Now()}
	s.mu.Unlock()

	h.Mount()
	return h
}

func (s *Sessions) newHandoff(scope string, flow Flow) *Handoff {
	return NewHandoff(s.gateway, s.widget, s.loader, s.pending, s.mode,
		s.logger.With(zap.String("profile", scope), zap.String("flow", string(flow))))
}

func (s *Sessions) Get(scope string, flow Flow) (*Handoff, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.handoffs[sessionKey{scope: scope, flow: flow}]
	return e.handoff, ok
}

// Sweep closes handoffs mounted before idle ago that have nothing in flight.
func (s *Sessions) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	s.mu.Lock()
	var stale []*Handoff
	for key, e := range s.handoffs {
		if e.mountedAt.Before(cutoff) && !e.handoff.Status().InFlight {
			stale = append(stale, e.handoff)
			delete(s.handoffs, key)
		}
	}
	s.mu.Unlock()

	for _, h := range stale {
		h.Close()
	}
	return len(stale)
}
