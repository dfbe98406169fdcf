package notifications

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/villastay/backend/pkg/metrics"
	"github.com/villastay/backend/pkg/queue"
)

// JobQueue accepts jobs for the worker.
type JobQueue interface {
	Enqueue(ctx context.Context, t queue.JobType, payload any) error
}

// QueueNotifier hands events to the worker through the job queue.
type QueueNotifier struct {
	queue   JobQueue
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewQueueNotifier creates a notifier backed by q.
func NewQueueNotifier(q JobQueue, m *metrics.Metrics, logger *zap.Logger) *QueueNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueNotifier{queue: q, metrics: m, logger: logger}
}

// Notify enqueues ev as a notification job.
func (n *QueueNotifier) Notify(ctx context.Context, ev Event) error {
	if !IsKnownKind(ev.Kind) {
		return fmt.Errorf("unknown notification kind: %s", ev.Kind)
	}
	if err := n.queue.Enqueue(ctx, queue.JobTypeNotification, ev); err != nil {
		return fmt.Errorf("enqueue %s notification: %w", ev.Kind, err)
	}
	if n.metrics != nil {
		n.metrics.NotificationQueued.Inc()
	}
	n.logger.Debug("notification queued", zap.String("kind", string(ev.Kind)), zap.String("reservation_id", ev.ReservationID.String()))
	return nil
}
