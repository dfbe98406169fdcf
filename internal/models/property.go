package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultWeekendDays are the nights priced at the weekend rate when a property sets none.
var DefaultWeekendDays = []time.Weekday{time.Thursday, time.Friday, time.Saturday}

// Property is the villa itself. The system manages exactly one.
type Property struct {
	ID              uuid.UUID      `json:"id"`
	Name            string         `json:"name"`
	Currency        string         `json:"currency"`
	WeekdayRate     int64          `json:"weekday_rate"`
	WeekendRate     *int64         `json:"weekend_rate,omitempty"` // nil means a flat nightly rate
	WeekendDays     []time.Weekday `json:"weekend_days"`
	AdultSupplement int64          `json:"adult_supplement"` // per adult per night
	ChildSupplement int64          `json:"child_supplement"` // per child per night
	CleaningFee     int64          `json:"cleaning_fee"`
	VATBps          int            `json:"vat_bps"` // 1700 = 17%
	MinNights       int            `json:"min_nights"`
	MaxNights       int            `json:"max_nights"` // 0 means no upper bound
	MaxOccupancy    int            `json:"max_occupancy"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// IsWeekend reports whether the night starting on d is priced as a weekend night.
func (p *Property) IsWeekend(d time.Time) bool {
	days := p.WeekendDays
	if len(days) == 0 {
		days = DefaultWeekendDays
	}
	wd := d.Weekday()
	for _, w := range days {
		if w == wd {
			return true
		}
	}
	return false
}
