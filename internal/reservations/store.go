package reservations

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/villastay/backend/internal/availability"
	"github.com/villastay/backend/internal/models"
)

// TxStore is the reservation store as seen while the calendar lock is held.
type TxStore interface {
	availability.Source
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	Insert(ctx context.Context, r *models.Reservation) error
	Update(ctx context.Context, r *models.Reservation) error
}

// ListFilter narrows the admin reservation listing. Zero fields match everything.
type ListFilter struct {
	Status models.ReservationStatus
	From   *time.Time // stays checking out after From
	To     *time.Time // stays checking in before To
	Limit  int
	Offset int
}

// Store persists reservations.
type Store interface {
	// WithCalendarLock runs fn in one transaction that holds the property's calendar lock.
	// Conflict checks made inside fn stay valid until it returns.
	WithCalendarLock(ctx context.Context, propertyID uuid.UUID, fn func(tx TxStore) error) error
	Get(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Reservation, error)
	List(ctx context.Context, f ListFilter) ([]*models.Reservation, error)
	// ListLapsedHolds returns PENDING reservations whose hold expired at or before now.
	ListLapsedHolds(ctx context.Context, now time.Time, limit int) ([]*models.Reservation, error)
	// ListDueReminders returns APPROVED or PAID stays checking in within [from, to] with no reminder sent.
	ListDueReminders(ctx context.Context, from, to time.Time) ([]*models.Reservation, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}
