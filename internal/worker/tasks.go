package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// HoldReaper settles lapsed holds.
type HoldReaper interface {
	ExpireStaleHolds(ctx context.Context, limit int) (int, error)
}

// ReminderSender queues pre-arrival reminders.
type ReminderSender interface {
	SendDueReminders(ctx context.Context, leadDays int) (int, error)
}

// FeedPublisher uploads the calendar feed.
type FeedPublisher interface {
	Publish(ctx context.Context) (string, error)
}

// reaperBatch bounds how many holds one tick cancels.
const reaperBatch = 200

// ReaperTask cancels lapsed PENDING holds every interval.
func ReaperTask(r HoldReaper, every time.Duration) Task {
	return Task{Name: "hold-reaper", Interval: every, Run: func(ctx context.Context) error {
		_, err := r.ExpireStaleHolds(ctx, reaperBatch)
		return err
	}}
}

// ReminderTask queues reminders for stays starting within leadDays.
func ReminderTask(r ReminderSender, leadDays int, every time.Duration, logger *zap.Logger) Task {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Task{Name: "reminders", Interval: every, Run: func(ctx context.Context) error {
		n, err := r.SendDueReminders(ctx, leadDays)
		if n > 0 {
			logger.Info("reminders queued", zap.Int("count", n))
		}
		return err
	}}
}

// FeedTask republishes the calendar feed every interval.
func FeedTask(p FeedPublisher, every time.Duration) Task {
	return Task{Name: "calendar-feed", Interval: every, Run: func(ctx context.Context) error {
		_, err := p.Publish(ctx)
		return err
	}}
}
