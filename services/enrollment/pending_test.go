package enrollment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"placement-storefront/models"
	"placement-storefront/storage"
)

type recordingScheduler struct {
	scope   string
	orderID string
	after   time.Duration
}

func (r *recordingScheduler) ScheduleExpiry(_ context.Context, scope, orderID string, after time.Duration) error {
	r.scope, r.orderID, r.after = scope, orderID, after
	return nil
}

func newTestStore(p storage.Persister, now time.Time) *Store {
	s := NewStore(p, time.Hour, zap.NewNop())
	s.now = func() time.Time { return now }
	return s
}

func TestSaveAndLoad(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sched := &recordingScheduler{}
	s := newTestStore(storage.NewMemoryPersister(), now).WithScheduler(sched)
	ctx := context.Background()

	rec := models.PendingEnrollment{CourseIDs: []string{"A", "B"}, OrderID: "order_1"}
	require.NoError(t, s.Save(ctx, "p1", rec))

	got, err := s.Load(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "order_1", got.OrderID)
	assert.Equal(t, now.UnixMilli(), got.Timestamp)
	assert.Equal(t, []string{"A", "B"}, got.Courses())

	assert.Equal(t, "p1", sched.scope)
	assert.Equal(t, "order_1", sched.orderID)
	assert.Equal(t, time.Hour, sched.after)
}

func TestNewerAttemptOverwrites(t *testing.T) {
	s := newTestStore(storage.NewMemoryPersister(), time.Now())
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "p1", models.PendingEnrollment{CourseID: "A", OrderID: "order_1"}))
	require.NoError(t, s.Save(ctx, "p1", models.PendingEnrollment{CourseID: "B", OrderID: "order_2"}))

	got, err := s.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "order_2", got.OrderID)
	assert.Equal(t, []string{"B"}, got.Courses())
}

func TestCorruptedRecordIsAbsent(t *testing.T) {
	p := storage.NewMemoryPersister()
	s := newTestStore(p, time.Now())
	ctx := context.Background()
	require.NoError(t, p.Save(ctx, "p1", models.PendingEnrollmentKey, []byte("{{")))

	got, err := s.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExpiredRecordIsAbsentAndPurged(t *testing.T) {
	p := storage.NewMemoryPersister()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := newTestStore(p, created)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "p1", models.PendingEnrollment{CourseID: "A", OrderID: "order_1"}))

	s.now = func() time.Time { return created.Add(2 * time.Hour) }
	got, err := s.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = p.Load(ctx, "p1", models.PendingEnrollmentKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestExpireLeavesNewerAttempt(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := newTestStore(storage.NewMemoryPersister(), created)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "p1", models.PendingEnrollment{CourseID: "A", OrderID: "order_2"}))

	s.now = func() time.Time { return created.Add(2 * time.Hour) }
	removed, err := s.Expire(ctx, "p1", "order_1")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = s.Expire(ctx, "p1", "order_2")
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestExpireKeepsFreshRecord(t *testing.T) {
	s := newTestStore(storage.NewMemoryPersister(), time.Now())
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "p1", models.PendingEnrollment{CourseID: "A", OrderID: "order_1"}))

	removed, err := s.Expire(ctx, "p1", "order_1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestClearIfMatchesOrder(t *testing.T) {
	s := newTestStore(storage.NewMemoryPersister(), time.Now())
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "p1", models.PendingEnrollment{CourseID: "A", OrderID: "order_2"}))

	removed, err := s.ClearIf(ctx, "p1", "order_1")
	require.NoError(t, err)
	assert.False(t, removed)

	got, err := s.Load(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "order_2", got.OrderID)

	removed, err = s.ClearIf(ctx, "p1", "order_2")
	require.NoError(t, err)
	assert.True(t, removed)

	got, err = s.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRememberSelection(t *testing.T) {
	p := storage.NewMemoryPersister()
	s := newTestStore(p, time.Now())
	ctx := context.Background()

	require.NoError(t, s.RememberSelection(ctx, "p1", []string{"A", "B"}, true))
	require.NoError(t, s.RememberSelection(ctx, "p1", []string{"C"}, false))

	bulk, err := p.Load(ctx, "p1", models.LastCoursesKey)
	require.NoError(t, err)
	assert.JSONEq(t, `["A","B"]`, string(bulk))

	single, err := p.Load(ctx, "p1", models.LastCourseKey)
	require.NoError(t, err)
	assert.Equal(t, "C", string(single))
}
