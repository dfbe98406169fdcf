// Package worker runs the background jobs: notification delivery and periodic maintenance.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/villastay/backend/pkg/queue"
)

// JobSource is the queue the notification loop consumes.
type JobSource interface {
	Dequeue(ctx context.Context, t queue.JobType, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// JobProcessor executes one job.
type JobProcessor interface {
	Process(ctx context.Context, job *queue.Job) error
}

// NotificationWorker delivers queued notifications, retrying failed jobs.
type NotificationWorker struct {
	queue     JobSource
	processor JobProcessor
	poll      time.Duration
	backoff   time.Duration
	logger    *zap.Logger
}

// NewNotificationWorker creates the notification loop.
func NewNotificationWorker(q JobSource, p JobProcessor, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{queue: q, processor: p, poll: 5 * time.Second, backoff: queue.RetryBackoff, logger: logger}
}

// WithBackoff sets the pause after a failure.
func (w *NotificationWorker) WithBackoff(d time.Duration) *NotificationWorker {
	w.backoff = d
	return w
}

// Run dequeues and processes jobs until ctx is done.
func (w *NotificationWorker) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			w.logger.Info("notification worker stopping")
			return nil
		}
		job, err := w.queue.Dequeue(ctx, queue.JobTypeNotification, w.poll)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Warn("dequeue error", zap.Error(err))
			sleep(ctx, w.backoff)
			continue
		}
		if job == nil {
			continue
		}

		w.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := w.processor.Process(ctx, job); err != nil {
			w.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := w.queue.Retry(ctx, job); reErr != nil {
				w.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			sleep(ctx, w.backoff)
		}
	}
}

// Task is a periodic job.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// RunTask runs t immediately and then on every tick until ctx is done. Failures are
// logged and the task keeps its schedule.
func RunTask(ctx context.Context, t Task, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("task scheduled", zap.String("task", t.Name), zap.Duration("interval", t.Interval))
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	for {
		start := time.Now()
		if err := t.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("task failed", zap.String("task", t.Name), zap.Error(err))
		} else {
			logger.Debug("task done", zap.String("task", t.Name), zap.Duration("took", time.Since(start)))
		}
		select {
		case <-ctx.Done():
			logger.Info("task stopping", zap.String("task", t.Name))
			return
		case <-ticker.C:
		}
	}
}

// Runner runs the notification loop and the periodic tasks together.
type Runner struct {
	notifications *NotificationWorker
	tasks         []Task
	logger        *zap.Logger
}

// NewRunner creates a runner. notifications may be nil.
func NewRunner(notifications *NotificationWorker, logger *zap.Logger, tasks ...Task) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{notifications: notifications, tasks: tasks, logger: logger}
}

// Run blocks until ctx is done and every loop has returned.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	if r.notifications != nil {
		g.Go(func() error { return r.notifications.Run(ctx) })
	}
	for _, t := range r.tasks {
		t := t
		if t.Interval <= 0 {
			r.logger.Warn("task disabled", zap.String("task", t.Name))
			continue
		}
		g.Go(func() error {
			RunTask(ctx, t, r.logger)
			return nil
		})
	}
	return g.Wait()
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
