package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/villastay/backend/pkg/dates"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending          ReservationStatus = "PENDING"
	StatusAwaitingApproval ReservationStatus = "AWAITING_APPROVAL"
	StatusApproved         ReservationStatus = "APPROVED"
	StatusPaid             ReservationStatus = "PAID"
	StatusCancelled        ReservationStatus = "CANCELLED"
)

// Reservation is a stay at the property, from hold to completion or cancellation.
// CheckOut is exclusive: the night of check-out is not part of the stay.
type Reservation struct {
	ID                   uuid.UUID         `json:"id"`
	PropertyID           uuid.UUID         `json:"property_id"`
	UserID               uuid.UUID         `json:"user_id"`
	CheckIn              time.Time         `json:"check_in"`
	CheckOut             time.Time         `json:"check_out"`
	Nights               int               `json:"nights"`
	Adults               int               `json:"adults"`
	Children             int               `json:"children"`
	BasePrice            int64             `json:"base_price"`
	AdultSupplementTotal int64             `json:"adult_supplement_total"`
	ChildSupplementTotal int64             `json:"child_supplement_total"`
	Subtotal             int64             `json:"subtotal"`
	Fees                 int64             `json:"fees"`
	Discount             int64             `json:"discount"`
	Taxes                int64             `json:"taxes"`
	Total                int64             `json:"total"`
	Currency             string            `json:"currency"`
	CouponCode           string            `json:"coupon_code,omitempty"`
	Status               ReservationStatus `json:"status"`
	HoldExpiresAt        *time.Time        `json:"hold_expires_at,omitempty"`
	ApprovedAt           *time.Time        `json:"approved_at,omitempty"`
	PaidAt               *time.Time        `json:"paid_at,omitempty"`
	CancelledAt          *time.Time        `json:"cancelled_at,omitempty"`
	CancellationReason   string            `json:"cancellation_reason,omitempty"`
	ReminderSentAt       *time.Time        `json:"reminder_sent_at,omitempty"`
	Notes                string            `json:"notes,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// HoldExpired reports whether a PENDING hold has lapsed at now.
func (r *Reservation) HoldExpired(now time.Time) bool {
	return r.Status == StatusPending && r.HoldExpiresAt != nil && !now.Before(*r.HoldExpiresAt)
}

// BlocksCalendar reports whether the reservation occupies its nights at now.
// A PENDING reservation with a lapsed hold does not.
func (r *Reservation) BlocksCalendar(now time.Time) bool {
	switch r.Status {
	case StatusPending:
		return !r.HoldExpired(now)
	case StatusAwaitingApproval, StatusApproved, StatusPaid:
		return true
	default:
		return false
	}
}

// Overlaps reports whether the stay shares a night with [checkIn, checkOut).
func (r *Reservation) Overlaps(checkIn, checkOut time.Time) bool {
	return checkIn.Before(r.CheckOut) && checkOut.After(r.CheckIn)
}

func (r Reservation) MarshalJSON() ([]byte, error) {
	type alias Reservation
	return json.Marshal(struct {
		alias
		CheckIn  string `json:"check_in"`
		CheckOut string `json:"check_out"`
	}{alias(r), dates.Format(r.CheckIn), dates.Format(r.CheckOut)})
}

// ActiveStatuses are the statuses that can occupy the calendar.
var ActiveStatuses = []ReservationStatus{StatusPending, StatusAwaitingApproval, StatusApproved, StatusPaid}
