package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/database"
)

// Repository handles blocked_periods persistence and the calendar reads behind the Resolver.
type Repository struct {
	pool *pgxpool.Pool
	db   database.DBTX
}

// NewRepository creates an availability repository on the pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, db: pool}
}

// NewTxRepository binds a repository to an open transaction.
func NewTxRepository(tx database.DBTX) *Repository {
	return &Repository{db: tx}
}

// WithCalendarLock runs fn inside a transaction holding the property's calendar lock.
func (r *Repository) WithCalendarLock(ctx context.Context, propertyID uuid.UUID, fn func(tx BlockTx) error) error {
	if r.pool == nil {
		return errors.New("availability: calendar lock requires a pool-backed repository")
	}
	return database.WithCalendarLock(ctx, r.pool, propertyID, func(tx pgx.Tx) error {
		return fn(NewTxRepository(tx))
	})
}

// ReservationsOverlapping returns non-cancelled reservations with a night inside [from, to).
func (r *Repository) ReservationsOverlapping(ctx context.Context, propertyID uuid.UUID, from, to time.Time) ([]*models.Reservation, error) {
	const q = `SELECT id, property_id, check_in, check_out, status, hold_expires_at
		FROM reservations
		WHERE property_id = $1 AND status <> 'CANCELLED' AND check_in < $3 AND check_out > $2
		ORDER BY check_in`
	rows, err := r.db.Query(ctx, q, propertyID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Reservation
	for rows.Next() {
		var rv models.Reservation
		if err := rows.Scan(&rv.ID, &rv.PropertyID, &rv.CheckIn, &rv.CheckOut, &rv.Status, &rv.HoldExpiresAt); err != nil {
			return nil, err
		}
		list = append(list, &rv)
	}
	return list, rows.Err()
}

// BlockedPeriodsOverlapping returns blocks sharing a day with the inclusive window [from, to].
func (r *Repository) BlockedPeriodsOverlapping(ctx context.Context, propertyID uuid.UUID, from, to time.Time) ([]*models.BlockedPeriod, error) {
	const q = `SELECT ` + blockColumns + `
		FROM blocked_periods
		WHERE property_id = $1 AND start_date <= $3 AND end_date >= $2
		ORDER BY start_date`
	return r.queryBlocks(ctx, q, propertyID, from, to)
}

const blockColumns = `id, property_id, start_date, end_date, reason, created_by, created_at`

// ListBlockedPeriods returns blocks for the property, optionally restricted to those ending on or after from.
func (r *Repository) ListBlockedPeriods(ctx context.Context, propertyID uuid.UUID, from *time.Time) ([]*models.BlockedPeriod, error) {
	if from == nil {
		return r.queryBlocks(ctx, `SELECT `+blockColumns+` FROM blocked_periods WHERE property_id = $1 ORDER BY start_date`, propertyID)
	}
	return r.queryBlocks(ctx, `SELECT `+blockColumns+` FROM blocked_periods WHERE property_id = $1 AND end_date >= $2 ORDER BY start_date`, propertyID, *from)
}

// InsertBlockedPeriod stores b and fills its ID and CreatedAt.
func (r *Repository) InsertBlockedPeriod(ctx context.Context, b *models.BlockedPeriod) error {
	const q = `INSERT INTO blocked_periods (property_id, start_date, end_date, reason, created_by)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		RETURNING id, created_at`
	return r.db.QueryRow(ctx, q, b.PropertyID, b.StartDate, b.EndDate, b.Reason, b.CreatedBy).Scan(&b.ID, &b.CreatedAt)
}

// DeleteBlockedPeriod removes a block. Returns apperr.ErrNotFound when absent.
func (r *Repository) DeleteBlockedPeriod(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM blocked_periods WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("blocked period %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (r *Repository) queryBlocks(ctx context.Context, q string, args ...any) ([]*models.BlockedPeriod, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.BlockedPeriod
	for rows.Next() {
		var b models.BlockedPeriod
		var reason *string
		if err := rows.Scan(&b.ID, &b.PropertyID, &b.StartDate, &b.EndDate, &reason, &b.CreatedBy, &b.CreatedAt); err != nil {
			return nil, err
		}
		if reason != nil {
			b.Reason = *reason
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}
