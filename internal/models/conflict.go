package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/villastay/backend/pkg/dates"
)

// ConflictKind tells what occupies the requested dates.
type ConflictKind string

const (
	ConflictReservation ConflictKind = "reservation"
	ConflictBlocked     ConflictKind = "blocked"
)

// Conflict is one existing reservation or blocked period overlapping a requested range.
// For reservations End is the (exclusive) check-out day; for blocks it is the last blocked day.
type Conflict struct {
	Kind   ConflictKind      `json:"kind"`
	ID     uuid.UUID         `json:"id"`
	Start  time.Time         `json:"start"`
	End    time.Time         `json:"end"`
	Status ReservationStatus `json:"status,omitempty"`
}

func (c Conflict) MarshalJSON() ([]byte, error) {
	type alias Conflict
	return json.Marshal(struct {
		alias
		Start string `json:"start"`
		End   string `json:"end"`
	}{alias(c), dates.Format(c.Start), dates.Format(c.End)})
}
