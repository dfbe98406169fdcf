// Package pricing turns a stay into an itemized quote.
package pricing

import (
	"fmt"
	"sort"
	"time"

	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/dates"
)

// ResolveNightlyRate prices the night starting on date. Precedence: a custom entry for the date,
// then the first season covering it (earliest start), then the weekend or weekday rate.
// Supplements come from the custom entry when it sets them, otherwise from the property.
func ResolveNightlyRate(date time.Time, p *models.Property, seasons []*models.Season, custom map[time.Time]*models.CustomPricingEntry) models.NightlyRate {
	nr := models.NightlyRate{
		Date:            date,
		AdultSupplement: p.AdultSupplement,
		ChildSupplement: p.ChildSupplement,
	}
	if e, ok := custom[date]; ok {
		nr.Rate, nr.Source = e.NightlyRate, models.RateCustom
		if e.AdultSupplement != nil {
			nr.AdultSupplement = *e.AdultSupplement
		}
		if e.ChildSupplement != nil {
			nr.ChildSupplement = *e.ChildSupplement
		}
		return nr
	}
	for _, s := range seasons {
		if s.Covers(date) {
			nr.Rate, nr.Source = s.NightlyRate, models.RateSeason
			return nr
		}
	}
	if p.WeekendRate != nil && p.IsWeekend(date) {
		nr.Rate, nr.Source = *p.WeekendRate, models.RateWeekend
		return nr
	}
	nr.Rate, nr.Source = p.WeekdayRate, models.RateWeekday
	return nr
}

// SortSeasons orders seasons by start date so that "first match" is deterministic.
func SortSeasons(seasons []*models.Season) {
	sort.SliceStable(seasons, func(i, j int) bool {
		if seasons[i].StartDate.Equal(seasons[j].StartDate) {
			return seasons[i].CreatedAt.Before(seasons[j].CreatedAt)
		}
		return seasons[i].StartDate.Before(seasons[j].StartDate)
	})
}

// IndexCustomPricing keys entries by date.
func IndexCustomPricing(entries []*models.CustomPricingEntry) map[time.Time]*models.CustomPricingEntry {
	m := make(map[time.Time]*models.CustomPricingEntry, len(entries))
	for _, e := range entries {
		m[dates.Normalize(e.Date)] = e
	}
	return m
}

// Tax returns amount * bps / 10000 rounded half-up to the minor unit.
func Tax(amount int64, bps int) int64 {
	if amount <= 0 || bps <= 0 {
		return 0
	}
	return (amount*int64(bps) + 5000) / 10000
}

// OverlapError reports a season whose dates collide with an existing one.
type OverlapError struct {
	With *models.Season
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("overlaps season %q (%s to %s)", e.With.Name, dates.Format(e.With.StartDate), dates.Format(e.With.EndDate))
}

// FindOverlap returns the first season in existing sharing a day with s, ignoring s itself.
func FindOverlap(existing []*models.Season, s *models.Season) *models.Season {
	for _, o := range existing {
		if o.ID == s.ID {
			continue
		}
		if o.Overlaps(s) {
			return o
		}
	}
	return nil
}
