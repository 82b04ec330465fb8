package enrollment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"placement-storefront/models"
	"placement-storefront/storage"
)

const DefaultTTL = 24 * time.Hour

// ExpiryScheduler arranges for a pending record to be purged once it is stale.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, scope, orderID string, after time.Duration) error
}

// Store keeps the pending enrollment record and the last-selected course keys
// that the payment success page reads after returning from the checkout.
type Store struct {
	persister storage.Persister
	scheduler ExpiryScheduler
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewStore(persister storage.Persister, ttl time.Duration, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		persister: persister,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Store) WithScheduler(scheduler ExpiryScheduler) *Store {
	s.scheduler = scheduler
	return s
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Save overwrites any earlier record for scope; only the latest checkout
// attempt is ever pending.
func (s *Store) Save(ctx context.Context, scope string, rec models.PendingEnrollment) error {
	if rec.Timestamp == 0 {
		rec.Timestamp = s.now().UnixMilli()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal pending enrollment: %w", err)
	}
	if err := s.persister.Save(ctx, scope, models.PendingEnrollmentKey, data); err != nil {
		return fmt.Errorf("failed to save pending enrollment: %w", err)
	}

	if s.scheduler != nil {
		if err := s.scheduler.ScheduleExpiry(ctx, scope, rec.OrderID, s.ttl); err != nil {
			s.logger.Warn("failed to schedule pending enrollment expiry",
				zap.String("order_id", rec.OrderID), zap.Error(err))
		}
	}
	return nil
}

// Load returns nil when there is no usable record. Unreadable and expired
// records are treated as absent.
func (s *Store) Load(ctx context.Context, scope string) (*models.PendingEnrollment, error) {
	data, err := s.persister.Load(ctx, scope, models.PendingEnrollmentKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending enrollment: %w", err)
	}

	var rec models.PendingEnrollment
	if err := json.Unmarshal(data, &rec); err != nil || rec.OrderID == "" {
		s.logger.Warn("discarding unreadable pending enrollment", zap.String("profile", scope))
		return nil, nil
	}

	if s.expired(rec) {
		s.logger.Info("pending enrollment expired",
			zap.String("profile", scope), zap.String("order_id", rec.OrderID))
		if err := s.persister.Delete(ctx, scope, models.PendingEnrollmentKey); err != nil {
			s.logger.Warn("failed to purge expired pending enrollment", zap.Error(err))
		}
		return nil, nil
	}
	return &rec, nil
}

func (s *Store) Clear(ctx context.Context, scope string) error {
	if err := s.persister.Delete(ctx, scope, models.PendingEnrollmentKey); err != nil {
		return fmt.Errorf("failed to clear pending enrollment: %w", err)
	}
	return nil
}

// Expire removes the record for scope if it still belongs to orderID and has
// outlived the TTL. A newer checkout attempt is left alone.
func (s *Store) Expire(ctx context.Context, scope, orderID string) (bool, error) {
	return s.clearMatching(ctx, scope, orderID, true)
}

// ClearIf removes the record for scope only if it belongs to orderID, so a
// failed attempt never drops the record of a newer one.
func (s *Store) ClearIf(ctx context.Context, scope, orderID string) (bool, error) {
	return s.clearMatching(ctx, scope, orderID, false)
}

func (s *Store) clearMatching(ctx context.Context, scope, orderID string, onlyExpired bool) (bool, error) {
	data, err := s.persister.Load(ctx, scope, models.PendingEnrollmentKey)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load pending enrollment: %w", err)
	}

	var rec models.PendingEnrollment
	if err := json.Unmarshal(data, &rec); err != nil {
		return true, s.Clear(ctx, scope)
	}
	if rec.OrderID != orderID {
		return false, nil
	}
	if onlyExpired && !s.expired(rec) {
		return false, nil
	}
	return true, s.Clear(ctx, scope)
}

// RememberSelection writes the last-selected course key(s) alongside the
// pending record.
func (s *Store) RememberSelection(ctx context.Context, scope string, courseIDs []string, bulk bool) error {
	if bulk {
		data, err := json.Marshal(courseIDs)
		if err != nil {
			return fmt.Errorf("failed to marshal last course ids: %w", err)
		}
		return s.persister.Save(ctx, scope, models.LastCoursesKey, data)
	}

	var id string
	if len(courseIDs) > 0 {
		id = courseIDs[0]
	}
	return s.persister.Save(ctx, scope, models.LastCourseKey, []byte(id))
}

func (s *Store) expired(rec models.PendingEnrollment) bool {
	return s.now().Sub(rec.CreatedAt()) >= s.ttl
}
