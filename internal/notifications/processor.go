package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/dates"
	"github.com/villastay/backend/pkg/metrics"
	"github.com/villastay/backend/pkg/queue"
)

// ReservationReader loads the reservation an event refers to.
type ReservationReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
}

// Directory resolves who receives a message.
type Directory interface {
	Contact(ctx context.Context, userID uuid.UUID) (email, name string, err error)
	ListAdminEmails(ctx context.Context) ([]string, error)
}

// LogStore records delivery attempts.
type LogStore interface {
	Insert(ctx context.Context, l *models.NotificationLog) error
}

// ProcessorConfig carries the sender identity.
type ProcessorConfig struct {
	SiteName    string
	FromAddress string
	FromName    string
	// AdminFallback receives approval requests when no admin account has an address.
	AdminFallback string
}

// Processor renders and delivers notification events and logs each attempt.
type Processor struct {
	reservations ReservationReader
	directory    Directory
	logs         LogStore
	sender       Sender
	cfg          ProcessorConfig
	now          func() time.Time
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// NewProcessor creates a notification processor.
func NewProcessor(reservations ReservationReader, directory Directory, logs LogStore, sender Sender, cfg ProcessorConfig, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SiteName == "" {
		cfg.SiteName = cfg.FromName
	}
	return &Processor{
		reservations: reservations,
		directory:    directory,
		logs:         logs,
		sender:       sender,
		cfg:          cfg,
		now:          time.Now,
		logger:       logger,
	}
}

// WithMetrics counts deliveries on m.
func (p *Processor) WithMetrics(m *metrics.Metrics) *Processor {
	p.metrics = m
	return p
}

// WithClock replaces the clock used for sent_at stamps.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

// Process executes one notification job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeNotification {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var ev Event
	if err := json.Unmarshal(job.Payload, &ev); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	return p.Deliver(ctx, ev)
}

// Deliver sends ev to its recipients. The error is non-nil when any delivery failed,
// so the job can be retried.
func (p *Processor) Deliver(ctx context.Context, ev Event) error {
	r, err := p.reservations.Get(ctx, ev.ReservationID)
	if errors.Is(err, apperr.ErrNotFound) {
		p.logger.Warn("notification for missing reservation dropped", zap.String("reservation_id", ev.ReservationID.String()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load reservation: %w", err)
	}
	guestEmail, guestName, err := p.directory.Contact(ctx, r.UserID)
	if err != nil {
		return fmt.Errorf("load guest contact: %w", err)
	}

	data := templateData{
		SiteName:    p.cfg.SiteName,
		GuestName:   guestName,
		GuestEmail:  guestEmail,
		Reservation: r,
		Reason:      ev.Reason,
	}
	if ev.OldCheckIn != nil {
		data.OldCheckIn = dates.Format(*ev.OldCheckIn)
	}
	if ev.OldCheckOut != nil {
		data.OldCheckOut = dates.Format(*ev.OldCheckOut)
	}
	subject, body, err := render(ev.Kind, data)
	if err != nil {
		return err
	}

	recipients, err := p.recipients(ctx, ev.Kind, guestEmail)
	if err != nil {
		return err
	}
	var failed error
	for _, to := range recipients {
		msg := Message{FromAddress: p.cfg.FromAddress, FromName: p.cfg.FromName, To: to, Subject: subject, Body: body}
		sendErr := p.sender.Send(ctx, msg)
		p.record(ctx, r.ID, ev.Kind, to, subject, sendErr)
		if sendErr != nil {
			failed = errors.Join(failed, fmt.Errorf("send to %s: %w", to, sendErr))
		}
	}
	return failed
}

func (p *Processor) recipients(ctx context.Context, kind models.NotificationKind, guestEmail string) ([]string, error) {
	if kind != models.NotifyApprovalRequired {
		return []string{guestEmail}, nil
	}
	admins, err := p.directory.ListAdminEmails(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admin emails: %w", err)
	}
	if len(admins) == 0 && p.cfg.AdminFallback != "" {
		admins = []string{p.cfg.AdminFallback}
	}
	return admins, nil
}

func (p *Processor) record(ctx context.Context, reservationID uuid.UUID, kind models.NotificationKind, to, subject string, sendErr error) {
	l := &models.NotificationLog{
		ReservationID:  reservationID,
		Kind:           kind,
		RecipientEmail: to,
		Subject:        subject,
		Status:         models.NotificationStatusSent,
	}
	if sendErr != nil {
		l.Status = models.NotificationStatusFailed
		l.ErrorMessage = sendErr.Error()
	} else {
		now := p.now()
		l.SentAt = &now
	}
	if p.metrics != nil {
		p.metrics.NotificationsSent.WithLabelValues(string(kind), l.Status).Inc()
	}
	if err := p.logs.Insert(ctx, l); err != nil {
		p.logger.Error("insert notification log", zap.String("reservation_id", reservationID.String()), zap.Error(err))
	}
}
