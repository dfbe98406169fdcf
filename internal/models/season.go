package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/villastay/backend/pkg/dates"
)

// Season overrides the nightly rate for an inclusive date range.
type Season struct {
	ID          uuid.UUID `json:"id"`
	PropertyID  uuid.UUID `json:"property_id"`
	Name        string    `json:"name"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	NightlyRate int64     `json:"nightly_rate"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Covers reports whether the night starting on d falls inside the season.
func (s *Season) Covers(d time.Time) bool {
	return !d.Before(s.StartDate) && !d.After(s.EndDate)
}

// Overlaps reports whether two seasons share at least one day.
func (s *Season) Overlaps(o *Season) bool {
	return !s.StartDate.After(o.EndDate) && !s.EndDate.Before(o.StartDate)
}

func (s Season) MarshalJSON() ([]byte, error) {
	type alias Season
	return json.Marshal(struct {
		alias
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}{alias(s), dates.Format(s.StartDate), dates.Format(s.EndDate)})
}

// CustomPricingEntry pins the price of a single night. It wins over seasons and base rates.
type CustomPricingEntry struct {
	ID              uuid.UUID `json:"id"`
	PropertyID      uuid.UUID `json:"property_id"`
	Date            time.Time `json:"date"`
	NightlyRate     int64     `json:"nightly_rate"`
	AdultSupplement *int64    `json:"adult_supplement,omitempty"`
	ChildSupplement *int64    `json:"child_supplement,omitempty"`
	Note            string    `json:"note,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (e CustomPricingEntry) MarshalJSON() ([]byte, error) {
	type alias CustomPricingEntry
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias(e), dates.Format(e.Date)})
}
