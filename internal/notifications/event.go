// Package notifications delivers guest and admin messages about reservation changes.
package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/villastay/backend/internal/models"
)

// Event asks for a message of Kind about a reservation.
type Event struct {
	Kind          models.NotificationKind `json:"kind"`
	ReservationID uuid.UUID               `json:"reservation_id"`
	Reason        string                  `json:"reason,omitempty"`
	OldCheckIn    *time.Time              `json:"old_check_in,omitempty"`
	OldCheckOut   *time.Time              `json:"old_check_out,omitempty"`
}

// Notifier accepts events for delivery. Implementations must not block on delivery itself.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev Event) error

func (f NotifierFunc) Notify(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Nop discards events.
var Nop Notifier = NotifierFunc(func(context.Context, Event) error { return nil })
