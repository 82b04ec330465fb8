package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"placement-storefront/models"
	"placement-storefront/storage"
)

// Listener receives the cart contents after every change.
type Listener func(models.CartEvent)

// Store is the cart of one browser profile. Contents are always held in
// memory; the persister is a mirror. Once the persister fails the store stays
// memory-only for the rest of its lifetime.
type Store struct {
	scope     string
	persister storage.Persister
	logger    *zap.Logger

	mu        sync.Mutex
	ids       []string
	version   int64
	degraded  bool
	lastUsed  time.Time
	listeners map[int]Listener
	nextID    int
}

func Open(ctx context.Context, scope string, persister storage.Persister, logger *zap.Logger) *Store {
	s := &Store{
		scope:     scope,
		persister: persister,
		logger:    logger.With(zap.String("profile", scope)),
		listeners: make(map[int]Listener),
		lastUsed:  time.Now(),
	}
	s.mu.Lock()
	s.refreshLocked(ctx)
	s.mu.Unlock()
	return s
}

// Add inserts courseID if it is not already present. Duplicates collapse.
func (s *Store) Add(ctx context.Context, courseID string) bool {
	if courseID == "" {
		return false
	}

	s.mu.Lock()
	for _, id := range s.ids {
		if id == courseID {
			s.mu.Unlock()
			return false
		}
	}
	s.ids = append(s.ids, courseID)
	event := s.commitLocked(ctx)
	s.mu.Unlock()

	s.notify(event)
	return true
}

// Remove drops courseID. Removing an absent id is a no-op.
func (s *Store) Remove(ctx context.Context, courseID string) bool {
	s.mu.Lock()
	idx := -1
	for i, id := range s.ids {
		if id == courseID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.ids = append(s.ids[:idx:idx], s.ids[idx+1:]...)
	event := s.commitLocked(ctx)
	s.mu.Unlock()

	s.notify(event)
	return true
}

func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.ids = nil
	event := s.commitLocked(ctx)
	s.mu.Unlock()

	s.notify(event)
}

// List returns a copy of the ids in insertion order.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *Store) Version() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Subscribe registers fn for change notifications and returns its cancel func.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Refresh adopts whatever another writer persisted since the last read.
func (s *Store) Refresh(ctx context.Context) {
	s.mu.Lock()
	s.refreshLocked(ctx)
	s.mu.Unlock()
}

func (s *Store) refreshLocked(ctx context.Context) {
	s.lastUsed = time.Now()
	if s.degraded {
		return
	}

	snap, err := s.load(ctx)
	if err != nil {
		s.degrade(err)
		return
	}
	s.ids = snap.IDs
	s.version = snap.Version
}

func (s *Store) commitLocked(ctx context.Context) models.CartEvent {
	s.lastUsed = time.Now()
	if !s.degraded {
		s.persistLocked(ctx)
	} else {
		s.version++
	}

	ids := make([]string, len(s.ids))
	copy(ids, s.ids)
	return models.CartEvent{CourseIDs: ids, Version: s.version}
}

func (s *Store) persistLocked(ctx context.Context) {
	current, err := s.load(ctx)
	if err != nil {
		s.degrade(err)
		s.version++
		return
	}
	if current.Version > s.version {
		s.logger.Warn("concurrent cart writer detected, overwriting",
			zap.Int64("seen_version", s.version),
			zap.Int64("stored_version", current.Version))
		s.version = current.Version
	}

	snap := models.CartSnapshot{
		IDs:       s.ids,
		Version:   s.version + 1,
		UpdatedAt: time.Now().UTC(),
	}
	if snap.IDs == nil {
		snap.IDs = []string{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		s.degrade(err)
		s.version++
		return
	}
	if err := s.persister.Save(ctx, s.scope, models.CartKey, data); err != nil {
		s.degrade(err)
		s.version++
		return
	}
	s.version = snap.Version
}

// load returns an empty snapshot for missing or unreadable data; only
// persister failures are reported as errors.
func (s *Store) load(ctx context.Context) (models.CartSnapshot, error) {
	data, err := s.persister.Load(ctx, s.scope, models.CartKey)
	if errors.Is(err, storage.ErrNotFound) {
		return models.CartSnapshot{}, nil
	}
	if err != nil {
		return models.CartSnapshot{}, err
	}

	snap, ok := decodeSnapshot(data)
	if !ok {
		s.logger.Warn("discarding unreadable cart data", zap.Int("bytes", len(data)))
		return models.CartSnapshot{}, nil
	}
	return snap, nil
}

func (s *Store) degrade(err error) {
	if !s.degraded {
		s.logger.Warn("cart persistence unavailable, keeping cart in memory", zap.Error(err))
	}
	s.degraded = true
}

func (s *Store) notify(event models.CartEvent) {
	s.mu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(event)
	}
}

func (s *Store) idle(since time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners) == 0 && s.lastUsed.Before(since)
}

// decodeSnapshot accepts the versioned envelope and the bare id array written
// by older clients. Ids are normalized to strings and de-duplicated.
func decodeSnapshot(data []byte) (models.CartSnapshot, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return models.CartSnapshot{}, false
	}

	var snap models.CartSnapshot
	var raw []models.CourseID
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &raw); err != nil {
			return models.CartSnapshot{}, false
		}
	case '{':
		var envelope struct {
			IDs       []models.CourseID `json:"ids"`
			Version   int64             `json:"version"`
			UpdatedAt time.Time         `json:"updated_at"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return models.CartSnapshot{}, false
		}
		raw = envelope.IDs
		snap.Version = envelope.Version
		snap.UpdatedAt = envelope.UpdatedAt
	default:
		return models.CartSnapshot{}, false
	}

	seen := make(map[string]struct{}, len(raw))
	for _, id := range raw {
		key := id.String()
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		snap.IDs = append(snap.IDs, key)
	}
	return snap, true
}
