package notifications

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/villastay/backend/internal/models"
)

// Repository handles notification_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a notification log repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert records one delivery attempt.
func (r *Repository) Insert(ctx context.Context, l *models.NotificationLog) error {
	const q = `INSERT INTO notification_logs (reservation_id, kind, recipient_email, subject, status, sent_at, error_message)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, NULLIF($7, ''))
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, l.ReservationID, string(l.Kind), l.RecipientEmail, l.Subject, l.Status, l.SentAt, l.ErrorMessage).
		Scan(&l.ID, &l.CreatedAt)
}

// ListByReservation returns the log of a reservation, newest first.
func (r *Repository) ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]*models.NotificationLog, error) {
	const q = `SELECT id, reservation_id, kind, recipient_email, subject, status, sent_at, error_message, created_at
		FROM notification_logs
		WHERE reservation_id = $1
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.NotificationLog
	for rows.Next() {
		var l models.NotificationLog
		var subject, errMsg *string
		if err := rows.Scan(&l.ID, &l.ReservationID, &l.Kind, &l.RecipientEmail, &subject, &l.Status, &l.SentAt, &errMsg, &l.CreatedAt); err != nil {
			return nil, err
		}
		if subject != nil {
			l.Subject = *subject
		}
		if errMsg != nil {
			l.ErrorMessage = *errMsg
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
