package calendarfeed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/villastay/backend/internal/availability"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/dates"
)

const (
	// PastDays is how far back the feed reaches.
	PastDays = 30
	// FutureDays is how far ahead the feed reaches.
	FutureDays = 540
)

// PropertyReader loads the villa.
type PropertyReader interface {
	GetProperty(ctx context.Context) (*models.Property, error)
}

// Feed builds the iCalendar export.
type Feed struct {
	src      availability.Source
	props    PropertyReader
	resolver *availability.Resolver
	now      func() time.Time
}

// NewFeed creates a feed. The resolver supplies the property-local "today".
func NewFeed(src availability.Source, props PropertyReader, resolver *availability.Resolver) *Feed {
	return &Feed{src: src, props: props, resolver: resolver, now: time.Now}
}

// WithClock replaces the clock used for DTSTAMP and hold expiry.
func (f *Feed) WithClock(now func() time.Time) *Feed {
	f.now = now
	return f
}

// Render returns the feed and the property it describes.
func (f *Feed) Render(ctx context.Context) ([]byte, uuid.UUID, error) {
	p, err := f.props.GetProperty(ctx)
	if err != nil {
		return nil, uuid.Nil, err
	}
	today := f.resolver.Today()
	from, to := dates.AddDays(today, -PastDays), dates.AddDays(today, FutureDays)
	res, err := f.src.ReservationsOverlapping(ctx, p.ID, from, to)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("load reservations: %w", err)
	}
	blocks, err := f.src.BlockedPeriodsOverlapping(ctx, p.ID, from, to)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("load blocked periods: %w", err)
	}
	now := f.now()
	return encode(p.Name, occupancy(res, blocks, now), now), p.ID, nil
}
