package reservations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/availability"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/database"
)

const reservationColumns = `id, property_id, user_id, check_in, check_out, nights, adults, children,
	base_price, adult_supplement_total, child_supplement_total, subtotal, fees, discount, taxes, total, currency,
	COALESCE(coupon_code, ''), status, hold_expires_at, approved_at, paid_at, cancelled_at,
	COALESCE(cancellation_reason, ''), reminder_sent_at, COALESCE(notes, ''), created_at, updated_at`

// Repository handles reservations persistence.
type Repository struct {
	pool *pgxpool.Pool
	db   database.DBTX
	*availability.Repository
}

// NewRepository creates a reservations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, db: pool, Repository: availability.NewRepository(pool)}
}

func newTxRepository(tx pgx.Tx) *Repository {
	return &Repository{db: tx, Repository: availability.NewTxRepository(tx)}
}

// WithCalendarLock runs fn inside a transaction holding the property's calendar lock.
func (r *Repository) WithCalendarLock(ctx context.Context, propertyID uuid.UUID, fn func(tx TxStore) error) error {
	if r.pool == nil {
		return errors.New("reservations: calendar lock requires a pool-backed repository")
	}
	return database.WithCalendarLock(ctx, r.pool, propertyID, func(tx pgx.Tx) error {
		return fn(newTxRepository(tx))
	})
}

func scanReservation(row pgx.Row) (*models.Reservation, error) {
	var rv models.Reservation
	err := row.Scan(&rv.ID, &rv.PropertyID, &rv.UserID, &rv.CheckIn, &rv.CheckOut, &rv.Nights, &rv.Adults, &rv.Children,
		&rv.BasePrice, &rv.AdultSupplementTotal, &rv.ChildSupplementTotal, &rv.Subtotal, &rv.Fees, &rv.Discount, &rv.Taxes,
		&rv.Total, &rv.Currency, &rv.CouponCode, &rv.Status, &rv.HoldExpiresAt, &rv.ApprovedAt, &rv.PaidAt, &rv.CancelledAt,
		&rv.CancellationReason, &rv.ReminderSentAt, &rv.Notes, &rv.CreatedAt, &rv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *Repository) query(ctx context.Context, q string, args ...any) ([]*models.Reservation, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Reservation
	for rows.Next() {
		rv, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, rv)
	}
	return list, rows.Err()
}

// Get returns a reservation by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	return scanReservation(r.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
}

// GetForUpdate returns a reservation and locks its row until the transaction ends.
func (r *Repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	return scanReservation(r.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id))
}

// Insert stores a new reservation and fills its id and timestamps.
func (r *Repository) Insert(ctx context.Context, rv *models.Reservation) error {
	const q = `INSERT INTO reservations (property_id, user_id, check_in, check_out, nights, adults, children,
			base_price, adult_supplement_total, child_supplement_total, subtotal, fees, discount, taxes, total, currency,
			coupon_code, status, hold_expires_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NULLIF($17, ''), $18, $19, NULLIF($20, ''))
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, q, rv.PropertyID, rv.UserID, rv.CheckIn, rv.CheckOut, rv.Nights, rv.Adults, rv.Children,
		rv.BasePrice, rv.AdultSupplementTotal, rv.ChildSupplementTotal, rv.Subtotal, rv.Fees, rv.Discount, rv.Taxes,
		rv.Total, rv.Currency, rv.CouponCode, string(rv.Status), rv.HoldExpiresAt, rv.Notes).
		Scan(&rv.ID, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

// Update writes the mutable lifecycle fields of rv.
func (r *Repository) Update(ctx context.Context, rv *models.Reservation) error {
	const q = `UPDATE reservations SET check_in = $2, check_out = $3, nights = $4, status = $5, hold_expires_at = $6,
			approved_at = $7, paid_at = $8, cancelled_at = $9, cancellation_reason = NULLIF($10, ''),
			reminder_sent_at = $11, notes = NULLIF($12, ''), updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.db.QueryRow(ctx, q, rv.ID, rv.CheckIn, rv.CheckOut, rv.Nights, string(rv.Status), rv.HoldExpiresAt,
		rv.ApprovedAt, rv.PaidAt, rv.CancelledAt, rv.CancellationReason, rv.ReminderSentAt, rv.Notes).Scan(&rv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	return nil
}

// ListByUser returns a guest's reservations, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Reservation, error) {
	return r.query(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// List returns reservations matching f ordered by check-in.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]*models.Reservation, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where = append(where, fmt.Sprintf("check_out > $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where = append(where, fmt.Sprintf("check_in < $%d", len(args)))
	}
	q := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit, f.Offset)
	q += fmt.Sprintf(` ORDER BY check_in, created_at LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	return r.query(ctx, q, args...)
}

// ListLapsedHolds returns PENDING reservations whose hold expired at or before now.
func (r *Repository) ListLapsedHolds(ctx context.Context, now time.Time, limit int) ([]*models.Reservation, error) {
	return r.query(ctx, `SELECT `+reservationColumns+` FROM reservations
		WHERE status = 'PENDING' AND hold_expires_at <= $1
		ORDER BY hold_expires_at LIMIT $2`, now, limit)
}

// ListDueReminders returns confirmed stays checking in within [from, to] that have not been reminded.
func (r *Repository) ListDueReminders(ctx context.Context, from, to time.Time) ([]*models.Reservation, error) {
	return r.query(ctx, `SELECT `+reservationColumns+` FROM reservations
		WHERE status IN ('APPROVED', 'PAID') AND reminder_sent_at IS NULL AND check_in BETWEEN $1 AND $2
		ORDER BY check_in`, from, to)
}

// MarkReminderSent stamps reminder_sent_at unless it is already set. It reports
// whether this call claimed the reminder.
func (r *Repository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE reservations SET reminder_sent_at = $2
		WHERE id = $1 AND reminder_sent_at IS NULL`, id, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
