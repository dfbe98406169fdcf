// Package availability decides which nights of the villa are free.
//
// Reservations occupy the half-open range [check_in, check_out); blocked periods occupy the
// inclusive range [start_date, end_date]. A requested stay [in, out) conflicts with a
// reservation when in < r.out && out > r.in, and with a block when in <= b.end && out >= b.start.
package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/dates"
)

// MaxCalendarDays bounds the window a calendar listing may cover.
const MaxCalendarDays = 400

// Source reads the calendar. Implementations may return more rows than strictly overlap;
// the Resolver re-applies the overlap rules.
type Source interface {
	// ReservationsOverlapping returns non-cancelled reservations sharing a night with [from, to).
	ReservationsOverlapping(ctx context.Context, propertyID uuid.UUID, from, to time.Time) ([]*models.Reservation, error)
	// BlockedPeriodsOverlapping returns blocks with start_date <= to and end_date >= from.
	BlockedPeriodsOverlapping(ctx context.Context, propertyID uuid.UUID, from, to time.Time) ([]*models.BlockedPeriod, error)
}

// Query is a candidate stay to check.
type Query struct {
	PropertyID           uuid.UUID
	CheckIn              time.Time
	CheckOut             time.Time
	ExcludeReservationID *uuid.UUID
}

// Resolver answers availability questions against a Source.
type Resolver struct {
	src Source
	loc *time.Location
	now func() time.Time
}

// NewResolver creates a resolver. loc is the property's timezone, used to decide what "today" is.
func NewResolver(src Source, loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{src: src, loc: loc, now: time.Now}
}

// WithClock returns a copy of the resolver that reads the time from now.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	cp := *r
	cp.now = now
	return &cp
}

// On returns a copy of the resolver reading from src, typically a transaction-bound repository.
func (r *Resolver) On(src Source) *Resolver {
	cp := *r
	cp.src = src
	return &cp
}

// Location is the property's timezone.
func (r *Resolver) Location() *time.Location { return r.loc }

// Today is the current property-local calendar date.
func (r *Resolver) Today() time.Time { return dates.Today(r.loc, r.now()) }

// ValidateStay checks that [checkIn, checkOut) is a well-formed stay that does not start in the past.
func (r *Resolver) ValidateStay(checkIn, checkOut time.Time) error {
	if checkIn.IsZero() {
		return apperr.Invalid("check_in", "is required")
	}
	if checkOut.IsZero() {
		return apperr.Invalid("check_out", "is required")
	}
	if !checkOut.After(checkIn) {
		return apperr.Invalid("check_out", "must be after check_in")
	}
	if today := r.Today(); checkIn.Before(today) {
		return apperr.Invalid("check_in", "must not be before %s", dates.Format(today))
	}
	return nil
}

// ListConflicts returns every active reservation and blocked period overlapping the stay,
// ordered by start date. An empty result means the stay is available.
func (r *Resolver) ListConflicts(ctx context.Context, q Query) ([]models.Conflict, error) {
	in, out := dates.Normalize(q.CheckIn), dates.Normalize(q.CheckOut)
	if err := r.ValidateStay(in, out); err != nil {
		return nil, err
	}
	return r.conflicts(ctx, q.PropertyID, in, out, q.ExcludeReservationID)
}

// IsRangeAvailable reports whether the stay has no conflicts.
func (r *Resolver) IsRangeAvailable(ctx context.Context, q Query) (bool, error) {
	c, err := r.ListConflicts(ctx, q)
	if err != nil {
		return false, err
	}
	return len(c) == 0, nil
}

// CheckStay returns a ConflictError when the stay is not available.
func (r *Resolver) CheckStay(ctx context.Context, q Query) error {
	c, err := r.ListConflicts(ctx, q)
	if err != nil {
		return err
	}
	if len(c) > 0 {
		return &apperr.ConflictError{Conflicts: c}
	}
	return nil
}

func (r *Resolver) conflicts(ctx context.Context, propertyID uuid.UUID, in, out time.Time, exclude *uuid.UUID) ([]models.Conflict, error) {
	now := r.now()
	res, err := r.src.ReservationsOverlapping(ctx, propertyID, in, out)
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}
	blocks, err := r.src.BlockedPeriodsOverlapping(ctx, propertyID, in, out)
	if err != nil {
		return nil, fmt.Errorf("load blocked periods: %w", err)
	}

	var found []models.Conflict
	for _, rv := range res {
		if exclude != nil && rv.ID == *exclude {
			continue
		}
		if !rv.BlocksCalendar(now) || !rv.Overlaps(in, out) {
			continue
		}
		found = append(found, models.Conflict{Kind: models.ConflictReservation, ID: rv.ID, Start: rv.CheckIn, End: rv.CheckOut, Status: rv.Status})
	}
	for _, b := range blocks {
		if in.After(b.EndDate) || out.Before(b.StartDate) {
			continue
		}
		found = append(found, models.Conflict{Kind: models.ConflictBlocked, ID: b.ID, Start: b.StartDate, End: b.EndDate})
	}
	sortConflicts(found)
	return found, nil
}

// DayConflicts returns what occupies any day of the inclusive range [start, end]: active
// reservations with a night on one of those days and blocks sharing a day with it.
// Used when admins block dates.
func (r *Resolver) DayConflicts(ctx context.Context, propertyID uuid.UUID, start, end time.Time) ([]models.Conflict, error) {
	start, end = dates.Normalize(start), dates.Normalize(end)
	if end.Before(start) {
		return nil, apperr.Invalid("end_date", "must not be before start_date")
	}
	now := r.now()
	stop := dates.AddDays(end, 1)
	res, err := r.src.ReservationsOverlapping(ctx, propertyID, start, stop)
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}
	blocks, err := r.src.BlockedPeriodsOverlapping(ctx, propertyID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load blocked periods: %w", err)
	}
	var out []models.Conflict
	for _, rv := range res {
		if rv.BlocksCalendar(now) && rv.Overlaps(start, stop) {
			out = append(out, models.Conflict{Kind: models.ConflictReservation, ID: rv.ID, Start: rv.CheckIn, End: rv.CheckOut, Status: rv.Status})
		}
	}
	for _, b := range blocks {
		if !start.After(b.EndDate) && !end.Before(b.StartDate) {
			out = append(out, models.Conflict{Kind: models.ConflictBlocked, ID: b.ID, Start: b.StartDate, End: b.EndDate})
		}
	}
	sortConflicts(out)
	return out, nil
}

// Day is the occupancy of one calendar night.
type Day struct {
	Date          time.Time           `json:"-"`
	Available     bool                `json:"available"`
	OccupiedBy    models.ConflictKind `json:"occupied_by,omitempty"`
	ReservationID *uuid.UUID          `json:"-"`
}

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date       string              `json:"date"`
		Available  bool                `json:"available"`
		OccupiedBy models.ConflictKind `json:"occupied_by,omitempty"`
	}{dates.Format(d.Date), d.Available, d.OccupiedBy})
}

// Calendar lists the occupancy of every night in [from, to).
func (r *Resolver) Calendar(ctx context.Context, propertyID uuid.UUID, from, to time.Time) ([]Day, error) {
	from, to = dates.Normalize(from), dates.Normalize(to)
	n := dates.NightsBetween(from, to)
	if n <= 0 {
		return nil, apperr.Invalid("to", "must be after from")
	}
	if n > MaxCalendarDays {
		return nil, apperr.Invalid("to", "window must not exceed %d days", MaxCalendarDays)
	}
	now := r.now()
	res, err := r.src.ReservationsOverlapping(ctx, propertyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}
	blocks, err := r.src.BlockedPeriodsOverlapping(ctx, propertyID, from, dates.AddDays(to, -1))
	if err != nil {
		return nil, fmt.Errorf("load blocked periods: %w", err)
	}

	days := make([]Day, n)
	for i, d := range dates.Nights(from, to) {
		days[i] = Day{Date: d, Available: true}
		for _, b := range blocks {
			if !d.Before(b.StartDate) && !d.After(b.EndDate) {
				days[i].Available = false
				days[i].OccupiedBy = models.ConflictBlocked
				break
			}
		}
		if !days[i].Available {
			continue
		}
		for _, rv := range res {
			if rv.BlocksCalendar(now) && !d.Before(rv.CheckIn) && d.Before(rv.CheckOut) {
				id := rv.ID
				days[i].Available = false
				days[i].OccupiedBy = models.ConflictReservation
				days[i].ReservationID = &id
				break
			}
		}
	}
	return days, nil
}

func sortConflicts(c []models.Conflict) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].Start.Equal(c[j].Start) {
			return c[i].Kind < c[j].Kind
		}
		return c[i].Start.Before(c[j].Start)
	})
}
