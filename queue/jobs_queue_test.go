package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewQueue(client, "storefront_jobs", zap.NewNop()), mr
}

func TestEnqueueDequeueComplete(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, JobTypeExpirePendingEnrollment, "p1", "order_1"))

	job, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, JobTypeExpirePendingEnrollment, job.Type)
	assert.Equal(t, "p1", job.Scope)
	assert.Equal(t, "order_1", job.OrderID)

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats["processing"])

	require.NoError(t, q.CompleteJob(ctx, job))
	stats, err = q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats["processing"])
	assert.Equal(t, int64(0), stats["pending"])
}

func TestScheduleExpiryWaitsForDelay(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	now := time.Now()
	q.now = func() time.Time { return now }

	require.NoError(t, q.ScheduleExpiry(ctx, "p1", "order_1", time.Hour))

	moved, err := q.ProcessDelayedJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, moved)

	now = now.Add(time.Hour + time.Second)
	moved, err = q.ProcessDelayedJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	job, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "order_1", job.OrderID)

	moved, err = q.ProcessDelayedJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, moved)
}

func TestFailJobRetriesThenParks(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	now := time.Now()
	q.now = func() time.Time { return now }

	require.NoError(t, q.Enqueue(ctx, JobTypeExpirePendingEnrollment, "p1", "order_1"))

	for attempt := 1; attempt <= maxRetries+1; attempt++ {
		job, err := q.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		require.NotNil(t, job, "attempt %d", attempt)
		require.NoError(t, q.FailJob(ctx, job, errors.New("redis hiccup")))

		now = now.Add(24 * time.Hour)
		_, err = q.ProcessDelayedJobs(ctx)
		require.NoError(t, err)
	}

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats["failed"])
	assert.Equal(t, int64(0), stats["pending"])
	assert.Equal(t, int64(0), stats["delayed"])
	assert.Equal(t, int64(0), stats["processing"])
}

func TestDequeueEmpty(t *testing.T) {
	q, _ := newTestQueue(t)
	job, err := q.Dequeue(context.Background(), 50*time.Millisecond)
	assert.NoError(t, err)
	assert.Nil(t, job)
}

func TestDequeueUnreadableJob(t *testing.T) {
	q, mr := newTestQueue(t)
	_, err := mr.Lpush("storefront_jobs", "{not json")
	require.NoError(t, err)

	job, err := q.Dequeue(context.Background(), time.Second)
	assert.NoError(t, err)
	assert.Nil(t, job)

	stats, err := q.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats["failed"])
}
