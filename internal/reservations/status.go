// Package reservations runs the hold and approval lifecycle of a stay.
package reservations

import (
	"time"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/models"
)

// transitions is the reservation state machine. PAID and CANCELLED are terminal.
var transitions = map[models.ReservationStatus][]models.ReservationStatus{
	models.StatusPending:          {models.StatusAwaitingApproval, models.StatusCancelled},
	models.StatusAwaitingApproval: {models.StatusApproved, models.StatusCancelled},
	models.StatusApproved:         {models.StatusPaid, models.StatusCancelled},
	models.StatusPaid:             {},
	models.StatusCancelled:        {},
}

// CanTransition reports whether a reservation in from may move to to.
func CanTransition(from, to models.ReservationStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible from s.
func IsTerminal(s models.ReservationStatus) bool {
	next, ok := transitions[s]
	return !ok || len(next) == 0
}

// IsValidStatus reports whether s is a known status.
func IsValidStatus(s models.ReservationStatus) bool {
	_, ok := transitions[s]
	return ok
}

// IsActive reports whether r occupies the calendar at now.
func IsActive(r *models.Reservation, now time.Time) bool { return r.BlocksCalendar(now) }

func checkTransition(r *models.Reservation, to models.ReservationStatus) error {
	if !CanTransition(r.Status, to) {
		return &apperr.TransitionError{From: r.Status, To: to}
	}
	return nil
}

// canReschedule lists the statuses whose dates an admin may move.
func canReschedule(s models.ReservationStatus) bool {
	return s == models.StatusApproved || s == models.StatusPaid
}
