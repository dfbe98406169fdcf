package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind is the event a guest or admin message is sent for.
type NotificationKind string

const (
	NotifyConfirmation     NotificationKind = "confirmation"
	NotifyApprovalRequired NotificationKind = "approval_required"
	NotifyApproved         NotificationKind = "approved"
	NotifyDeclined         NotificationKind = "declined"
	NotifyCancelled        NotificationKind = "cancelled"
	NotifyRescheduled      NotificationKind = "rescheduled"
	NotifyReminder         NotificationKind = "reminder"
)

// NotificationLogStatus for delivery.
const (
	NotificationStatusSent   = "sent"
	NotificationStatusFailed = "failed"
)

// NotificationLog records a delivered (or failed) reservation message.
type NotificationLog struct {
	ID             uuid.UUID        `json:"id"`
	ReservationID  uuid.UUID        `json:"reservation_id"`
	Kind           NotificationKind `json:"kind"`
	RecipientEmail string           `json:"recipient_email"`
	Subject        string           `json:"subject,omitempty"`
	Status         string           `json:"status"`
	SentAt         *time.Time       `json:"sent_at,omitempty"`
	ErrorMessage   string           `json:"error_message,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}
