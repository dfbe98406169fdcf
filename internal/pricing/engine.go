package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/availability"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/dates"
	"github.com/villastay/backend/pkg/metrics"
	"github.com/villastay/backend/pkg/utils"
)

// DefaultHoldTTL is how long a quote's hold token stays redeemable.
const DefaultHoldTTL = 15 * time.Minute

// Catalog reads the pricing configuration of the villa.
type Catalog interface {
	GetProperty(ctx context.Context) (*models.Property, error)
	SeasonsOverlapping(ctx context.Context, propertyID uuid.UUID, from, to time.Time) ([]*models.Season, error)
	CustomPricing(ctx context.Context, propertyID uuid.UUID, from, to time.Time) ([]*models.CustomPricingEntry, error)
}

// SettingsReader supplies the site settings (security deposit).
type SettingsReader interface {
	Get(ctx context.Context) (models.Settings, error)
}

// AvailabilityChecker rejects stays that are in the past or taken.
type AvailabilityChecker interface {
	CheckStay(ctx context.Context, q availability.Query) error
}

// CouponValidator turns a code into a discount.
type CouponValidator interface {
	Validate(ctx context.Context, code string, nights int) (models.Discount, error)
}

// QuoteRequest is what a guest asks a price for.
type QuoteRequest struct {
	CheckIn    time.Time
	CheckOut   time.Time
	Adults     int
	Children   int
	CouponCode string
}

// Engine computes quotes and issues hold tokens.
type Engine struct {
	catalog  Catalog
	settings SettingsReader
	avail    AvailabilityChecker
	coupons  CouponValidator
	store    QuoteStore
	holdTTL  time.Duration
	now      func() time.Time
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewEngine creates a pricing engine. holdTTL <= 0 uses DefaultHoldTTL.
func NewEngine(catalog Catalog, settings SettingsReader, avail AvailabilityChecker, coupons CouponValidator, store QuoteStore, holdTTL time.Duration, logger *zap.Logger) *Engine {
	if holdTTL <= 0 {
		holdTTL = DefaultHoldTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		catalog:  catalog,
		settings: settings,
		avail:    avail,
		coupons:  coupons,
		store:    store,
		holdTTL:  holdTTL,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock sets the time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// WithMetrics records issued quotes on m.
func (e *Engine) WithMetrics(m *metrics.Metrics) *Engine {
	e.metrics = m
	return e
}

// HoldTTL is the lifetime of issued hold tokens.
func (e *Engine) HoldTTL() time.Duration { return e.holdTTL }

// Quote validates the stay, prices it and stores the result under a fresh hold token.
func (e *Engine) Quote(ctx context.Context, req QuoteRequest) (*models.Quote, error) {
	in, out := dates.Normalize(req.CheckIn), dates.Normalize(req.CheckOut)
	if req.CheckIn.IsZero() {
		return nil, apperr.Invalid("check_in", "is required")
	}
	if req.CheckOut.IsZero() {
		return nil, apperr.Invalid("check_out", "is required")
	}
	if !out.After(in) {
		return nil, apperr.Invalid("check_out", "must be after check_in")
	}
	nights := dates.NightsBetween(in, out)

	p, err := e.catalog.GetProperty(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateStay(p, nights, req.Adults, req.Children); err != nil {
		return nil, err
	}

	var (
		seasons  []*models.Season
		custom   []*models.CustomPricingEntry
		settings models.Settings
		discount *models.Discount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.avail.CheckStay(gctx, availability.Query{PropertyID: p.ID, CheckIn: in, CheckOut: out})
	})
	g.Go(func() error {
		var err error
		seasons, err = e.catalog.SeasonsOverlapping(gctx, p.ID, in, dates.AddDays(out, -1))
		if err != nil {
			return fmt.Errorf("load seasons: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		custom, err = e.catalog.CustomPricing(gctx, p.ID, in, out)
		if err != nil {
			return fmt.Errorf("load custom pricing: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		settings, err = e.settings.Get(gctx)
		return err
	})
	if code := strings.TrimSpace(req.CouponCode); code != "" {
		g.Go(func() error {
			d, err := e.coupons.Validate(gctx, code, nights)
			if err != nil {
				return err
			}
			discount = &d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	q := Calculate(p, seasons, custom, in, out, req.Adults, req.Children, discount)
	q.SecurityDeposit = settings.SecurityDeposit()

	token, err := utils.NewToken()
	if err != nil {
		return nil, fmt.Errorf("hold token: %w", err)
	}
	now := e.now()
	q.HoldToken = token
	q.CreatedAt = now
	q.HoldExpiresAt = now.Add(e.holdTTL)
	if err := e.store.Save(ctx, q, e.holdTTL); err != nil {
		return nil, fmt.Errorf("save quote: %w", err)
	}
	if e.metrics != nil {
		e.metrics.QuotesIssued.Inc()
	}
	e.logger.Debug("quote issued",
		zap.String("check_in", dates.Format(in)),
		zap.String("check_out", dates.Format(out)),
		zap.Int64("total", q.Total),
	)
	return q, nil
}

func validateStay(p *models.Property, nights, adults, children int) error {
	if p.MinNights > 0 && nights < p.MinNights {
		return &apperr.ValidationError{
			Field:  "nights",
			Reason: fmt.Sprintf("minimum stay is %d nights", p.MinNights),
			Detail: map[string]any{"nights": nights, "min_nights": p.MinNights},
		}
	}
	if p.MaxNights > 0 && nights > p.MaxNights {
		return &apperr.ValidationError{
			Field:  "nights",
			Reason: fmt.Sprintf("maximum stay is %d nights", p.MaxNights),
			Detail: map[string]any{"nights": nights, "max_nights": p.MaxNights},
		}
	}
	if adults < 1 {
		return apperr.Invalid("adults", "at least one adult is required")
	}
	if children < 0 {
		return apperr.Invalid("children", "must not be negative")
	}
	if p.MaxOccupancy > 0 && adults+children > p.MaxOccupancy {
		return &apperr.ValidationError{
			Field:  "adults",
			Reason: fmt.Sprintf("the villa sleeps at most %d guests", p.MaxOccupancy),
			Detail: map[string]any{"guests": adults + children, "max_occupancy": p.MaxOccupancy},
		}
	}
	return nil
}

// Calculate prices [in, out) with no I/O. discount may be nil.
func Calculate(p *models.Property, seasons []*models.Season, custom []*models.CustomPricingEntry, in, out time.Time, adults, children int, discount *models.Discount) *models.Quote {
	sorted := append([]*models.Season(nil), seasons...)
	SortSeasons(sorted)
	byDate := IndexCustomPricing(custom)

	q := &models.Quote{
		PropertyID: p.ID,
		CheckIn:    in,
		CheckOut:   out,
		Nights:     dates.NightsBetween(in, out),
		Adults:     adults,
		Children:   children,
		Currency:   p.Currency,
	}
	for _, night := range dates.Nights(in, out) {
		nr := ResolveNightlyRate(night, p, sorted, byDate)
		q.NightlyRates = append(q.NightlyRates, nr)
		q.BasePrice += nr.Rate
		q.AdultSupplement += nr.AdultSupplement * int64(adults)
		q.ChildSupplement += nr.ChildSupplement * int64(children)
	}
	q.Subtotal = q.BasePrice + q.AdultSupplement + q.ChildSupplement
	q.Fees = p.CleaningFee

	pre := q.Subtotal + q.Fees
	if discount != nil {
		q.Discount = discount.Apply(pre)
		q.CouponCode = discount.Code
	}
	pre -= q.Discount
	q.Taxes = Tax(pre, p.VATBps)
	q.Total = pre + q.Taxes
	q.LineItems = lineItems(q, p)
	return q
}

func lineItems(q *models.Quote, p *models.Property) []models.LineItem {
	items := []models.LineItem{{
		Kind:   models.LineBase,
		Label:  fmt.Sprintf("%d nights", q.Nights),
		Amount: q.BasePrice,
	}}
	if q.AdultSupplement != 0 {
		items = append(items, models.LineItem{Kind: models.LineAdultSupplement, Label: fmt.Sprintf("%d adults", q.Adults), Amount: q.AdultSupplement})
	}
	if q.ChildSupplement != 0 {
		items = append(items, models.LineItem{Kind: models.LineChildSupplement, Label: fmt.Sprintf("%d children", q.Children), Amount: q.ChildSupplement})
	}
	if q.Fees != 0 {
		items = append(items, models.LineItem{Kind: models.LineFees, Label: "Cleaning fee", Amount: q.Fees})
	}
	if q.Discount != 0 {
		items = append(items, models.LineItem{Kind: models.LineDiscount, Label: "Coupon " + q.CouponCode, Amount: -q.Discount})
	}
	items = append(items, models.LineItem{
		Kind:   models.LineTaxes,
		Label:  fmt.Sprintf("VAT %d.%02d%%", p.VATBps/100, p.VATBps%100),
		Amount: q.Taxes,
	})
	return items
}
