package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/villastay/backend/pkg/dates"
)

// BlockedPeriod closes an inclusive range of days to bookings. Both ends are blocked.
type BlockedPeriod struct {
	ID         uuid.UUID  `json:"id"`
	PropertyID uuid.UUID  `json:"property_id"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    time.Time  `json:"end_date"`
	Reason     string     `json:"reason,omitempty"`
	CreatedBy  *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (b BlockedPeriod) MarshalJSON() ([]byte, error) {
	type alias BlockedPeriod
	return json.Marshal(struct {
		alias
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}{alias(b), dates.Format(b.StartDate), dates.Format(b.EndDate)})
}
