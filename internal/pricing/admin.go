package pricing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/dates"
)

// CatalogStore is the persistence behind the admin pricing screens.
type CatalogStore interface {
	Catalog
	PropertyID(ctx context.Context) (uuid.UUID, error)
	SaveProperty(ctx context.Context, p *models.Property) error
	ListSeasons(ctx context.Context, propertyID uuid.UUID) ([]*models.Season, error)
	SaveSeason(ctx context.Context, s *models.Season) error
	DeleteSeason(ctx context.Context, id uuid.UUID) error
	UpsertCustomPricing(ctx context.Context, e *models.CustomPricingEntry) error
	DeleteCustomPricing(ctx context.Context, propertyID uuid.UUID, date time.Time) error
}

// Admin edits the villa's rates and rules.
type Admin struct {
	store    CatalogStore
	currency string
	logger   *zap.Logger
}

// NewAdmin creates the pricing admin service. currency is used when a saved property names none.
func NewAdmin(store CatalogStore, currency string, logger *zap.Logger) *Admin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Admin{store: store, currency: currency, logger: logger}
}

// Property returns the villa.
func (a *Admin) Property(ctx context.Context) (*models.Property, error) {
	return a.store.GetProperty(ctx)
}

// SaveProperty validates and stores the villa's configuration.
func (a *Admin) SaveProperty(ctx context.Context, p *models.Property) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	if p.Currency == "" {
		p.Currency = strings.ToUpper(a.currency)
	}
	switch {
	case p.Name == "":
		return apperr.Invalid("name", "is required")
	case len(p.Currency) != 3:
		return apperr.Invalid("currency", "must be a 3-letter ISO code")
	case p.WeekdayRate < 0:
		return apperr.Invalid("weekday_rate", "must not be negative")
	case p.WeekendRate != nil && *p.WeekendRate < 0:
		return apperr.Invalid("weekend_rate", "must not be negative")
	case p.AdultSupplement < 0:
		return apperr.Invalid("adult_supplement", "must not be negative")
	case p.ChildSupplement < 0:
		return apperr.Invalid("child_supplement", "must not be negative")
	case p.CleaningFee < 0:
		return apperr.Invalid("cleaning_fee", "must not be negative")
	case p.VATBps < 0 || p.VATBps > 10000:
		return apperr.Invalid("vat_bps", "must be between 0 and 10000")
	case p.MinNights < 1:
		return apperr.Invalid("min_nights", "must be at least 1")
	case p.MaxNights != 0 && p.MaxNights < p.MinNights:
		return apperr.Invalid("max_nights", "must be 0 (unbounded) or at least min_nights")
	case p.MaxOccupancy < 1:
		return apperr.Invalid("max_occupancy", "must be at least 1")
	}
	if len(p.WeekendDays) == 0 {
		p.WeekendDays = append([]time.Weekday(nil), models.DefaultWeekendDays...)
	}
	seen := map[time.Weekday]bool{}
	for _, d := range p.WeekendDays {
		if d < time.Sunday || d > time.Saturday {
			return apperr.Invalid("weekend_days", "must be weekday numbers 0 (Sunday) to 6 (Saturday)")
		}
		if seen[d] {
			return apperr.Invalid("weekend_days", "must not repeat a day")
		}
		seen[d] = true
	}
	if err := a.store.SaveProperty(ctx, p); err != nil {
		return err
	}
	a.logger.Info("property saved", zap.String("property_id", p.ID.String()))
	return nil
}

// Seasons lists the villa's seasons.
func (a *Admin) Seasons(ctx context.Context) ([]*models.Season, error) {
	id, err := a.store.PropertyID(ctx)
	if err != nil {
		return nil, err
	}
	return a.store.ListSeasons(ctx, id)
}

// SaveSeason creates (zero ID) or updates a season. Seasons may not overlap.
func (a *Admin) SaveSeason(ctx context.Context, s *models.Season) error {
	s.Name = strings.TrimSpace(s.Name)
	s.StartDate, s.EndDate = dates.Normalize(s.StartDate), dates.Normalize(s.EndDate)
	switch {
	case s.Name == "":
		return apperr.Invalid("name", "is required")
	case s.EndDate.Before(s.StartDate):
		return apperr.Invalid("end_date", "must not be before start_date")
	case s.NightlyRate < 0:
		return apperr.Invalid("nightly_rate", "must not be negative")
	}
	id, err := a.store.PropertyID(ctx)
	if err != nil {
		return err
	}
	s.PropertyID = id
	err = a.store.SaveSeason(ctx, s)
	var oe *OverlapError
	if errors.As(err, &oe) {
		return &apperr.ValidationError{
			Field:  "start_date",
			Reason: oe.Error(),
			Detail: map[string]any{"season_id": oe.With.ID, "start_date": dates.Format(oe.With.StartDate), "end_date": dates.Format(oe.With.EndDate)},
		}
	}
	return err
}

// DeleteSeason removes a season.
func (a *Admin) DeleteSeason(ctx context.Context, id uuid.UUID) error {
	return a.store.DeleteSeason(ctx, id)
}

// CustomPricing lists per-date overrides for [from, to).
func (a *Admin) CustomPricing(ctx context.Context, from, to time.Time) ([]*models.CustomPricingEntry, error) {
	if !to.After(from) {
		return nil, apperr.Invalid("to", "must be after from")
	}
	id, err := a.store.PropertyID(ctx)
	if err != nil {
		return nil, err
	}
	return a.store.CustomPricing(ctx, id, from, to)
}

// SetCustomPricing pins the price of one night.
func (a *Admin) SetCustomPricing(ctx context.Context, e *models.CustomPricingEntry) error {
	e.Date = dates.Normalize(e.Date)
	switch {
	case e.NightlyRate < 0:
		return apperr.Invalid("nightly_rate", "must not be negative")
	case e.AdultSupplement != nil && *e.AdultSupplement < 0:
		return apperr.Invalid("adult_supplement", "must not be negative")
	case e.ChildSupplement != nil && *e.ChildSupplement < 0:
		return apperr.Invalid("child_supplement", "must not be negative")
	}
	id, err := a.store.PropertyID(ctx)
	if err != nil {
		return err
	}
	e.PropertyID = id
	return a.store.UpsertCustomPricing(ctx, e)
}

// ClearCustomPricing removes the override for a night.
func (a *Admin) ClearCustomPricing(ctx context.Context, date time.Time) error {
	id, err := a.store.PropertyID(ctx)
	if err != nil {
		return err
	}
	return a.store.DeleteCustomPricing(ctx, id, dates.Normalize(date))
}
