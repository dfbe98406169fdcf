package pricing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/availability"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/dates"
)

type fakeCatalog struct {
	property *models.Property
	seasons  []*models.Season
	custom   []*models.CustomPricingEntry
}

func (f *fakeCatalog) GetProperty(context.Context) (*models.Property, error) {
	if f.property == nil {
		return nil, ErrNoProperty
	}
	return f.property, nil
}

func (f *fakeCatalog) SeasonsOverlapping(context.Context, uuid.UUID, time.Time, time.Time) ([]*models.Season, error) {
	return f.seasons, nil
}

func (f *fakeCatalog) CustomPricing(context.Context, uuid.UUID, time.Time, time.Time) ([]*models.CustomPricingEntry, error) {
	return f.custom, nil
}

type fakeSettings struct{ s models.Settings }

func (f fakeSettings) Get(context.Context) (models.Settings, error) { return f.s, nil }

type fakeAvailability struct {
	mu     sync.Mutex
	err    error
	called []availability.Query
}

func (f *fakeAvailability) CheckStay(_ context.Context, q availability.Query) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called = append(f.called, q)
	return f.err
}

type fakeCoupons map[string]models.Discount

func (f fakeCoupons) Validate(_ context.Context, code string, _ int) (models.Discount, error) {
	if d, ok := f[code]; ok {
		return d, nil
	}
	return models.Discount{}, &apperr.CouponError{Code: code, Reason: "coupon does not exist"}
}

func i64(v int64) *int64 { return &v }
func iptr(v int) *int    { return &v }

var fixedNow = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

func villa() *models.Property {
	return &models.Property{
		ID:           uuid.New(),
		Name:         "Villa",
		Currency:     "ILS",
		WeekdayRate:  30000,
		WeekendRate:  i64(36000),
		MinNights:    1,
		MaxOccupancy: 10,
	}
}

func newEngine(cat *fakeCatalog, opts ...func(*Engine)) (*Engine, *MemoryQuoteStore) {
	store := NewMemoryQuoteStore(func() time.Time { return fixedNow })
	e := NewEngine(cat, fakeSettings{}, &fakeAvailability{}, fakeCoupons{"SAVE10": {Code: "SAVE10", PercentOff: iptr(10)}}, store, 0, nil).
		WithClock(func() time.Time { return fixedNow })
	for _, o := range opts {
		o(e)
	}
	return e, store
}

func quoteReq(in, out string) QuoteRequest {
	return QuoteRequest{CheckIn: dates.MustParse(in), CheckOut: dates.MustParse(out), Adults: 2}
}

func TestWeekdayWeekendRates(t *testing.T) {
	e, _ := newEngine(&fakeCatalog{property: villa()})
	q, err := e.Quote(context.Background(), quoteReq("2025-01-08", "2025-01-10"))
	require.NoError(t, err)

	assert.Equal(t, 2, q.Nights)
	require.Len(t, q.NightlyRates, 2)
	assert.Equal(t, models.RateWeekday, q.NightlyRates[0].Source) // Wednesday
	assert.Equal(t, models.RateWeekend, q.NightlyRates[1].Source) // Thursday
	assert.Equal(t, int64(66000), q.BasePrice)
	assert.Equal(t, q.Total, q.LineItemsTotal())
}

func TestFlatRateWithoutWeekendRate(t *testing.T) {
	p := villa()
	p.WeekendRate = nil
	e, _ := newEngine(&fakeCatalog{property: p})
	q, err := e.Quote(context.Background(), quoteReq("2025-01-08", "2025-01-11"))
	require.NoError(t, err)
	assert.Equal(t, int64(90000), q.BasePrice)
}

func TestMinNights(t *testing.T) {
	p := villa()
	p.MinNights = 2
	e, _ := newEngine(&fakeCatalog{property: p})
	_, err := e.Quote(context.Background(), quoteReq("2025-03-01", "2025-03-02"))
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "nights", ve.Field)
	assert.Equal(t, 2, ve.Detail["min_nights"])
}

func TestMaxNightsAndOccupancy(t *testing.T) {
	p := villa()
	p.MaxNights = 3
	p.MaxOccupancy = 4
	e, _ := newEngine(&fakeCatalog{property: p})
	var ve *apperr.ValidationError

	_, err := e.Quote(context.Background(), quoteReq("2025-03-01", "2025-03-05"))
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "nights", ve.Field)

	req := quoteReq("2025-03-01", "2025-03-03")
	req.Adults, req.Children = 3, 2
	_, err = e.Quote(context.Background(), req)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "adults", ve.Field)
}

func TestCheckOutMustFollowCheckIn(t *testing.T) {
	e, _ := newEngine(&fakeCatalog{property: villa()})
	_, err := e.Quote(context.Background(), quoteReq("2025-03-02", "2025-03-02"))
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "check_out", ve.Field)
}

func TestNoProperty(t *testing.T) {
	e, _ := newEngine(&fakeCatalog{})
	_, err := e.Quote(context.Background(), quoteReq("2025-03-01", "2025-03-03"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCouponAndTax(t *testing.T) {
	// One custom-priced night of 100000 and VAT 17%.
	p := villa()
	p.VATBps = 1700
	in := dates.MustParse("2025-03-03")
	cat := &fakeCatalog{property: p, custom: []*models.CustomPricingEntry{{Date: in, NightlyRate: 100000}}}
	e, _ := newEngine(cat)

	req := quoteReq("2025-03-03", "2025-03-04")
	req.CouponCode = "SAVE10"
	q, err := e.Quote(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int64(100000), q.Subtotal+q.Fees)
	assert.Equal(t, int64(10000), q.Discount)
	assert.Equal(t, int64(15300), q.Taxes)
	assert.Equal(t, int64(105300), q.Total)
	assert.Equal(t, "SAVE10", q.CouponCode)

	kinds := make([]models.LineItemKind, 0, len(q.LineItems))
	for _, li := range q.LineItems {
		kinds = append(kinds, li.Kind)
	}
	assert.Equal(t, []models.LineItemKind{models.LineBase, models.LineDiscount, models.LineTaxes}, kinds)
	assert.Equal(t, int64(-10000), q.LineItems[1].Amount)
	assert.Equal(t, q.Total, q.LineItemsTotal())
}

func TestExplicitBadCouponIsError(t *testing.T) {
	e, _ := newEngine(&fakeCatalog{property: villa()})
	req := quoteReq("2025-03-03", "2025-03-05")
	req.CouponCode = "BOGUS"
	_, err := e.Quote(context.Background(), req)
	var ce *apperr.CouponError
	require.ErrorAs(t, err, &ce)
}

func TestAmountDiscountFlooredAtZero(t *testing.T) {
	p := villa()
	p.VATBps = 1700
	q := Calculate(p, nil, nil, dates.MustParse("2025-03-03"), dates.MustParse("2025-03-04"), 1, 0,
		&models.Discount{Code: "HUGE", AmountOff: i64(1_000_000)})
	assert.Equal(t, int64(30000), q.Discount)
	assert.Equal(t, int64(0), q.Taxes)
	assert.Equal(t, int64(0), q.Total)
	assert.Equal(t, q.Total, q.LineItemsTotal())
}

func TestRatePrecedence(t *testing.T) {
	p := villa()
	p.AdultSupplement = 1000
	p.ChildSupplement = 500
	season := &models.Season{Name: "Summer", StartDate: dates.MustParse("2025-07-01"), EndDate: dates.MustParse("2025-08-31"), NightlyRate: 50000}
	later := &models.Season{Name: "Later", StartDate: dates.MustParse("2025-07-03"), EndDate: dates.MustParse("2025-07-10"), NightlyRate: 99999}
	custom := IndexCustomPricing([]*models.CustomPricingEntry{{Date: dates.MustParse("2025-07-04"), NightlyRate: 70000, AdultSupplement: i64(2000)}})
	seasons := []*models.Season{later, season}
	SortSeasons(seasons)

	fri := ResolveNightlyRate(dates.MustParse("2025-07-04"), p, seasons, custom)
	assert.Equal(t, models.RateCustom, fri.Source)
	assert.Equal(t, int64(70000), fri.Rate)
	assert.Equal(t, int64(2000), fri.AdultSupplement)
	assert.Equal(t, int64(500), fri.ChildSupplement)

	sat := ResolveNightlyRate(dates.MustParse("2025-07-05"), p, seasons, custom)
	assert.Equal(t, models.RateSeason, sat.Source)
	assert.Equal(t, int64(50000), sat.Rate, "earliest-starting season wins")

	thu := ResolveNightlyRate(dates.MustParse("2025-06-26"), p, seasons, custom)
	assert.Equal(t, models.RateWeekend, thu.Source)

	sun := ResolveNightlyRate(dates.MustParse("2025-06-29"), p, seasons, custom)
	assert.Equal(t, models.RateWeekday, sun.Source)
}

func TestSupplementsAndFees(t *testing.T) {
	p := villa()
	p.WeekendRate = nil
	p.AdultSupplement = 1000
	p.ChildSupplement = 500
	p.CleaningFee = 25000
	p.VATBps = 1700
	q := Calculate(p, nil, nil, dates.MustParse("2025-03-03"), dates.MustParse("2025-03-06"), 3, 2, nil)

	assert.Equal(t, int64(90000), q.BasePrice)
	assert.Equal(t, int64(9000), q.AdultSupplement)
	assert.Equal(t, int64(3000), q.ChildSupplement)
	assert.Equal(t, int64(102000), q.Subtotal)
	assert.Equal(t, int64(25000), q.Fees)
	assert.Equal(t, Tax(127000, 1700), q.Taxes)
	assert.Equal(t, q.Total, q.LineItemsTotal())
}

func TestLineItemsSumToTotal(t *testing.T) {
	p := villa()
	p.AdultSupplement = 333
	p.ChildSupplement = 177
	p.CleaningFee = 12345
	p.VATBps = 1700
	pct := []int{1, 7, 13, 33, 99}
	for n := 1; n <= 14; n++ {
		for _, pc := range pct {
			in := dates.MustParse("2025-02-01")
			q := Calculate(p, nil, nil, in, dates.AddDays(in, n), 2, 1, &models.Discount{Code: "X", PercentOff: iptr(pc)})
			require.Equal(t, n, q.Nights)
			require.Equal(t, q.Total, q.LineItemsTotal(), "nights=%d pct=%d", n, pc)
		}
	}
}

func TestTaxRoundsHalfUp(t *testing.T) {
	assert.Equal(t, int64(15300), Tax(90000, 1700))
	assert.Equal(t, int64(1), Tax(3, 1700))  // 0.51
	assert.Equal(t, int64(0), Tax(2, 1700))  // 0.34
	assert.Equal(t, int64(9), Tax(50, 1700)) // 8.5
	assert.Equal(t, int64(0), Tax(0, 1700))
}

func TestQuoteIssuesHoldToken(t *testing.T) {
	e, store := newEngine(&fakeCatalog{property: villa()}, func(e *Engine) {
		e.settings = fakeSettings{s: models.Settings{SecurityDepositEnabled: true, SecurityDepositAmount: 200000}}
	})
	q, err := e.Quote(context.Background(), quoteReq("2025-03-03", "2025-03-05"))
	require.NoError(t, err)

	assert.NotEmpty(t, q.HoldToken)
	assert.Equal(t, fixedNow.Add(DefaultHoldTTL), q.HoldExpiresAt)
	assert.Equal(t, int64(200000), q.SecurityDeposit)
	assert.Equal(t, q.Total, q.LineItemsTotal(), "deposit is reported outside the total")

	saved, err := store.Get(context.Background(), q.HoldToken)
	require.NoError(t, err)
	assert.Equal(t, q.Total, saved.Total)
	assert.True(t, saved.CheckIn.Equal(q.CheckIn))
}

func TestQuoteSurfacesConflicts(t *testing.T) {
	conflict := &apperr.ConflictError{Conflicts: []models.Conflict{{Kind: models.ConflictBlocked}}}
	avail := &fakeAvailability{err: conflict}
	e, store := newEngine(&fakeCatalog{property: villa()}, func(e *Engine) { e.avail = avail })

	_, err := e.Quote(context.Background(), quoteReq("2025-03-03", "2025-03-05"))
	var ce *apperr.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Empty(t, store.quotes)
	require.Len(t, avail.called, 1)
	assert.Equal(t, "2025-03-03", dates.Format(avail.called[0].CheckIn))
}

func TestMemoryQuoteStoreExpires(t *testing.T) {
	now := fixedNow
	store := NewMemoryQuoteStore(func() time.Time { return now })
	require.NoError(t, store.Save(context.Background(), &models.Quote{HoldToken: "t"}, time.Minute))

	_, err := store.Get(context.Background(), "t")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.Get(context.Background(), "t")
	assert.True(t, errors.Is(err, ErrQuoteNotFound))
}
