package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type JobType string

const JobTypeExpirePendingEnrollment JobType = "expire_pending_enrollment"

const maxRetries = 5

type Job struct {
	ID         string    `json:"id"`
	Type       JobType   `json:"type"`
	Scope      string    `json:"scope"`
	OrderID    string    `json:"order_id"`
	CreatedAt  time.Time `json:"created_at"`
	RetryCount int       `json:"retry_count"`
	LastError  string    `json:"last_error,omitempty"`

	// raw is the exact payload popped from Redis, needed to remove the job
	// from the processing list.
	raw string
}

// Queue is a Redis list work queue with a sorted set for delayed jobs.
type Queue struct {
	client     *redis.Client
	queueName  string
	processing string
	delayed    string
	failed     string
	logger     *zap.Logger
	now        func() time.Time
}

func NewQueue(client *redis.Client, queueName string, logger *zap.Logger) *Queue {
	return &Queue{
		client:     client,
		queueName:  queueName,
		processing: queueName + ":processing",
		delayed:    queueName + ":delayed",
		failed:     queueName + ":failed",
		logger:     logger,
		now:        time.Now,
	}
}

func (q *Queue) newJob(jobType JobType, scope, orderID string) Job {
	return Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Scope:     scope,
		OrderID:   orderID,
		CreatedAt: q.now(),
	}
}

func (q *Queue) Enqueue(ctx context.Context, jobType JobType, scope, orderID string) error {
	job := q.newJob(jobType, scope, orderID)

	jobJSON, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, q.queueName, jobJSON).Err(); err != nil {
		return fmt.Errorf("failed to push job to queue: %w", err)
	}

	q.logger.Debug("enqueued job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	return nil
}

// EnqueueDelayed parks a job in the delayed set until delay has passed.
func (q *Queue) EnqueueDelayed(ctx context.Context, jobType JobType, scope, orderID string, delay time.Duration) error {
	job := q.newJob(jobType, scope, orderID)

	jobJSON, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	executeAt := q.now().Add(delay)
	if err := q.client.ZAdd(ctx, q.delayed, &redis.Z{
		Score:  float64(executeAt.Unix()),
		Member: jobJSON,
	}).Err(); err != nil {
		return fmt.Errorf("failed to push delayed job to queue: %w", err)
	}

	q.logger.Debug("enqueued delayed job",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
		zap.Time("execute_at", executeAt))
	return nil
}

// ScheduleExpiry queues the purge of a pending enrollment record.
func (q *Queue) ScheduleExpiry(ctx context.Context, scope, orderID string, after time.Duration) error {
	return q.EnqueueDelayed(ctx, JobTypeExpirePendingEnrollment, scope, orderID, after)
}

// Dequeue blocks up to timeout. It returns nil, nil when nothing arrived.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job from queue: %w", err)
	}
	if len(result) < 2 {
		return nil, fmt.Errorf("unexpected BLPOP result format")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("dropping unreadable job", zap.Error(err))
		if err := q.client.RPush(ctx, q.failed, result[1]).Err(); err != nil {
			q.logger.Warn("failed to park unreadable job", zap.Error(err))
		}
		return nil, nil
	}
	job.raw = result[1]

	if err := q.client.RPush(ctx, q.processing, result[1]).Err(); err != nil {
		q.logger.Warn("failed to move job to processing queue", zap.String("job_id", job.ID), zap.Error(err))
	}
	return &job, nil
}

func (q *Queue) CompleteJob(ctx context.Context, job *Job) error {
	if err := q.client.LRem(ctx, q.processing, 1, job.raw).Err(); err != nil {
		return fmt.Errorf("failed to remove job from processing queue: %w", err)
	}
	q.logger.Debug("completed job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	return nil
}

// FailJob retries with exponential backoff starting at 15s and parks the job
// in the failed list after maxRetries attempts.
func (q *Queue) FailJob(ctx context.Context, job *Job, jobErr error) error {
	if err := q.client.LRem(ctx, q.processing, 1, job.raw).Err(); err != nil {
		q.logger.Warn("failed to remove job from processing queue", zap.String("job_id", job.ID), zap.Error(err))
	}

	job.RetryCount++
	job.LastError = jobErr.Error()

	jobJSON, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if job.RetryCount <= maxRetries {
		delay := time.Duration(15*(1<<(job.RetryCount-1))) * time.Second
		retryAt := q.now().Add(delay)

		err = q.client.ZAdd(ctx, q.delayed, &redis.Z{
			Score:  float64(retryAt.Unix()),
			Member: jobJSON,
		}).Err()
		if err == nil {
			q.logger.Info("job scheduled for retry",
				zap.String("job_id", job.ID),
				zap.Int("attempt", job.RetryCount),
				zap.Duration("delay", delay))
			return nil
		}
		q.logger.Warn("failed to schedule retry, moving job to failed queue", zap.Error(err))
	}

	if err := q.client.RPush(ctx, q.failed, jobJSON).Err(); err != nil {
		return fmt.Errorf("failed to push job to failed queue: %w", err)
	}
	q.logger.Error("job moved to failed queue",
		zap.String("job_id", job.ID),
		zap.Int("retries", job.RetryCount),
		zap.String("last_error", job.LastError))
	return nil
}

// ProcessDelayedJobs moves every due delayed job onto the main queue.
func (q *Queue) ProcessDelayedJobs(ctx context.Context) (int, error) {
	now := q.now().Unix()

	jobs, err := q.client.ZRangeByScore(ctx, q.delayed, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now, 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get delayed jobs: %w", err)
	}

	moved := 0
	for _, jobJSON := range jobs {
		// ZRem first so two workers never both promote the same job.
		removed, err := q.client.ZRem(ctx, q.delayed, jobJSON).Result()
		if err != nil {
			q.logger.Warn("failed to remove job from delayed queue", zap.Error(err))
			continue
		}
		if removed == 0 {
			continue
		}
		if err := q.client.RPush(ctx, q.queueName, jobJSON).Err(); err != nil {
			q.logger.Warn("failed to move delayed job to main queue", zap.Error(err))
			continue
		}
		moved++
	}
	return moved, nil
}

// Stats reports the length of each list.
func (q *Queue) Stats(ctx context.Context) (map[string]int64, error) {
	pipe := q.client.Pipeline()
	pending := pipe.LLen(ctx, q.queueName)
	processing := pipe.LLen(ctx, q.processing)
	delayed := pipe.ZCard(ctx, q.delayed)
	failed := pipe.LLen(ctx, q.failed)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to read queue stats: %w", err)
	}
	return map[string]int64{
		"pending":    pending.Val(),
		"processing": processing.Val(),
		"delayed":    delayed.Val(),
		"failed":     failed.Val(),
	}, nil
}

func (q *Queue) Client() *redis.Client {
	return q.client
}
