package notifications

import (
	"context"

	"go.uber.org/zap"
)

// Message is a rendered notification ready for delivery.
type Message struct {
	FromAddress string
	FromName    string
	To          string
	Subject     string
	Body        string
}

// Sender delivers rendered messages.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, m Message) error {
	s.logger.Info("notification",
		zap.String("to", m.To),
		zap.String("from", m.FromAddress),
		zap.String("subject", m.Subject),
		zap.Int("body_bytes", len(m.Body)),
	)
	return nil
}
