package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"placement-storefront/queue"
)

// Expirer purges a pending enrollment record once it is stale.
type Expirer interface {
	Expire(ctx context.Context, scope, orderID string) (bool, error)
}

// Worker drains the job queue and promotes due delayed jobs.
type Worker struct {
	queue        *queue.Queue
	expirer      Expirer
	logger       *zap.Logger
	pollInterval time.Duration

	shutdown chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

func NewWorker(q *queue.Queue, expirer Expirer, logger *zap.Logger) *Worker {
	return &Worker{
		queue:        q,
		expirer:      expirer,
		logger:       logger,
		pollInterval: 5 * time.Second,
		shutdown:     make(chan struct{}),
	}
}

func (w *Worker) Start(concurrency int) {
	if concurrency < 1 {
		concurrency = 1
	}

	w.wg.Add(concurrency + 1)
	go w.promoteDelayed()
	for i := 0; i < concurrency; i++ {
		go w.processJobs(i)
	}

	w.logger.Info("started worker goroutines", zap.Int("concurrency", concurrency))
}

// Stop signals every goroutine and waits for in-flight jobs to finish.
func (w *Worker) Stop() {
	w.once.Do(func() {
		w.logger.Info("stopping worker")
		close(w.shutdown)
	})
	w.wg.Wait()
}

func (w *Worker) promoteDelayed() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdown:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			moved, err := w.queue.ProcessDelayedJobs(ctx)
			cancel()
			if err != nil {
				w.logger.Warn("failed to promote delayed jobs", zap.Error(err))
				continue
			}
			if moved > 0 {
				w.logger.Debug("promoted delayed jobs", zap.Int("count", moved))
			}
		}
	}
}

func (w *Worker) processJobs(workerID int) {
	defer w.wg.Done()
	logger := w.logger.With(zap.Int("worker", workerID))

	for {
		select {
		case <-w.shutdown:
			logger.Debug("worker shutting down")
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		job, err := w.queue.Dequeue(ctx, time.Second)
		cancel()

		if err != nil {
			logger.Warn("error dequeuing job", zap.Error(err))
			w.sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		w.handle(logger, job)
	}
}

func (w *Worker) handle(logger *zap.Logger, job *queue.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if jobErr := w.processJob(ctx, job); jobErr != nil {
		logger.Warn("job failed", zap.String("job_id", job.ID), zap.Error(jobErr))
		if err := w.queue.FailJob(ctx, job, jobErr); err != nil {
			logger.Error("error marking job as failed", zap.String("job_id", job.ID), zap.Error(err))
		}
		return
	}

	if err := w.queue.CompleteJob(ctx, job); err != nil {
		logger.Warn("error marking job as complete", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (w *Worker) processJob(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeExpirePendingEnrollment:
		return w.processExpiry(ctx, job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (w *Worker) processExpiry(ctx context.Context, job *queue.Job) error {
	if job.Scope == "" || job.OrderID == "" {
		return fmt.Errorf("expiry job %s is missing scope or order id", job.ID)
	}

	removed, err := w.expirer.Expire(ctx, job.Scope, job.OrderID)
	if err != nil {
		return fmt.Errorf("failed to expire pending enrollment: %w", err)
	}
	if removed {
		w.logger.Info("expired pending enrollment",
			zap.String("profile", job.Scope),
			zap.String("order_id", job.OrderID))
	}
	return nil
}

func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.shutdown:
	case <-time.After(d):
	}
}
