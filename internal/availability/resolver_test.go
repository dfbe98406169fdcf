package availability

import (
	"context"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/dates"
)

// memCalendar is an in-memory Source and BlockStore.
type memCalendar struct {
	mu           sync.Mutex
	lock         sync.Mutex
	reservations []*models.Reservation
	blocks       []*models.BlockedPeriod
}

func (m *memCalendar) ReservationsOverlapping(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Reservation(nil), m.reservations...), nil
}

func (m *memCalendar) BlockedPeriodsOverlapping(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]*models.BlockedPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.BlockedPeriod(nil), m.blocks...), nil
}

func (m *memCalendar) InsertBlockedPeriod(_ context.Context, b *models.BlockedPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = uuid.New()
	m.blocks = append(m.blocks, b)
	return nil
}

func (m *memCalendar) WithCalendarLock(_ context.Context, _ uuid.UUID, fn func(tx BlockTx) error) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	return fn(m)
}

func (m *memCalendar) ListBlockedPeriods(_ context.Context, _ uuid.UUID, _ *time.Time) ([]*models.BlockedPeriod, error) {
	return m.BlockedPeriodsOverlapping(context.Background(), uuid.Nil, time.Time{}, time.Time{})
}

func (m *memCalendar) DeleteBlockedPeriod(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.blocks {
		if b.ID == id {
			m.blocks = append(m.blocks[:i], m.blocks[i+1:]...)
			return nil
		}
	}
	return apperr.ErrNotFound
}

var (
	propertyID = uuid.New()
	// 2025-06-01 09:00 in Jerusalem.
	clock = func() time.Time { return time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC) }
)

func newResolver(src Source) *Resolver {
	loc, _ := time.LoadLocation("Asia/Jerusalem")
	return NewResolver(src, loc).WithClock(clock)
}

func stay(in, out string) Query {
	return Query{PropertyID: propertyID, CheckIn: dates.MustParse(in), CheckOut: dates.MustParse(out)}
}

func reservation(status models.ReservationStatus, in, out string) *models.Reservation {
	return &models.Reservation{ID: uuid.New(), PropertyID: propertyID, Status: status, CheckIn: dates.MustParse(in), CheckOut: dates.MustParse(out)}
}

func TestBlockedPeriodIsInclusive(t *testing.T) {
	cal := &memCalendar{blocks: []*models.BlockedPeriod{{
		ID: uuid.New(), StartDate: dates.MustParse("2025-06-10"), EndDate: dates.MustParse("2025-06-12"),
	}}}
	r := newResolver(cal)
	ctx := context.Background()

	ok, err := r.IsRangeAvailable(ctx, stay("2025-06-12", "2025-06-13"))
	require.NoError(t, err)
	assert.False(t, ok, "last blocked day cannot be a check-in night")

	ok, err = r.IsRangeAvailable(ctx, stay("2025-06-13", "2025-06-15"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.IsRangeAvailable(ctx, stay("2025-06-08", "2025-06-10"))
	require.NoError(t, err)
	assert.False(t, ok, "check-out on the first blocked day still touches the block")
}

func TestReservationOverlapIsHalfOpen(t *testing.T) {
	existing := reservation(models.StatusApproved, "2025-06-10", "2025-06-12")
	r := newResolver(&memCalendar{reservations: []*models.Reservation{existing}})
	ctx := context.Background()

	cases := []struct {
		in, out string
		free    bool
	}{
		{"2025-06-12", "2025-06-14", true},  // back-to-back after
		{"2025-06-08", "2025-06-10", true},  // back-to-back before
		{"2025-06-11", "2025-06-13", false}, // shares the night of the 11th
		{"2025-06-09", "2025-06-13", false}, // encloses
	}
	for _, tc := range cases {
		ok, err := r.IsRangeAvailable(ctx, stay(tc.in, tc.out))
		require.NoError(t, err)
		assert.Equal(t, tc.free, ok, "%s..%s", tc.in, tc.out)
	}

	conflicts, err := r.ListConflicts(ctx, stay("2025-06-11", "2025-06-13"))
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, existing.ID, conflicts[0].ID)
	assert.Equal(t, models.ConflictReservation, conflicts[0].Kind)
	assert.Equal(t, models.StatusApproved, conflicts[0].Status)
}

func TestExpiredHoldDoesNotBlock(t *testing.T) {
	past := clock().Add(-time.Minute)
	future := clock().Add(10 * time.Minute)
	lapsed := reservation(models.StatusPending, "2025-06-10", "2025-06-12")
	lapsed.HoldExpiresAt = &past
	live := reservation(models.StatusPending, "2025-06-20", "2025-06-22")
	live.HoldExpiresAt = &future
	cancelled := reservation(models.StatusCancelled, "2025-06-25", "2025-06-27")

	r := newResolver(&memCalendar{reservations: []*models.Reservation{lapsed, live, cancelled}})
	ctx := context.Background()

	c, err := r.ListConflicts(ctx, stay("2025-06-10", "2025-06-12"))
	require.NoError(t, err)
	assert.Empty(t, c)

	c, err = r.ListConflicts(ctx, stay("2025-06-21", "2025-06-23"))
	require.NoError(t, err)
	assert.Len(t, c, 1)

	c, err = r.ListConflicts(ctx, stay("2025-06-25", "2025-06-27"))
	require.NoError(t, err)
	assert.Empty(t, c)
}

func TestExcludeReservation(t *testing.T) {
	own := reservation(models.StatusPaid, "2025-06-10", "2025-06-14")
	r := newResolver(&memCalendar{reservations: []*models.Reservation{own}})
	q := stay("2025-06-12", "2025-06-16")
	q.ExcludeReservationID = &own.ID

	ok, err := r.IsRangeAvailable(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPastCheckInIsValidationError(t *testing.T) {
	r := newResolver(&memCalendar{})
	ctx := context.Background()

	_, err := r.IsRangeAvailable(ctx, stay("2025-05-31", "2025-06-02"))
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "check_in", ve.Field)

	ok, err := r.IsRangeAvailable(ctx, stay("2025-06-01", "2025-06-02"))
	require.NoError(t, err, "same-day check-in is allowed")
	assert.True(t, ok)

	_, err = r.IsRangeAvailable(ctx, stay("2025-06-05", "2025-06-05"))
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "check_out", ve.Field)
}

func TestTodayUsesPropertyTimezone(t *testing.T) {
	// 22:30 UTC on May 31 is already June 1 in Jerusalem.
	late := func() time.Time { return time.Date(2025, 5, 31, 22, 30, 0, 0, time.UTC) }
	r := newResolver(&memCalendar{}).WithClock(late)
	assert.Equal(t, "2025-06-01", dates.Format(r.Today()))
}

func TestIsRangeAvailableIdempotent(t *testing.T) {
	r := newResolver(&memCalendar{reservations: []*models.Reservation{reservation(models.StatusAwaitingApproval, "2025-07-01", "2025-07-05")}})
	ctx := context.Background()
	for _, q := range []Query{stay("2025-07-03", "2025-07-04"), stay("2025-07-05", "2025-07-06")} {
		first, err := r.IsRangeAvailable(ctx, q)
		require.NoError(t, err)
		second, err := r.IsRangeAvailable(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestCheckStayReturnsConflictError(t *testing.T) {
	r := newResolver(&memCalendar{reservations: []*models.Reservation{reservation(models.StatusApproved, "2025-07-01", "2025-07-05")}})
	err := r.CheckStay(context.Background(), stay("2025-07-04", "2025-07-06"))
	var ce *apperr.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Len(t, ce.Conflicts, 1)
}

func TestCalendar(t *testing.T) {
	cal := &memCalendar{
		reservations: []*models.Reservation{reservation(models.StatusApproved, "2025-06-03", "2025-06-05")},
		blocks:       []*models.BlockedPeriod{{ID: uuid.New(), StartDate: dates.MustParse("2025-06-06"), EndDate: dates.MustParse("2025-06-06")}},
	}
	days, err := newResolver(cal).Calendar(context.Background(), propertyID, dates.MustParse("2025-06-02"), dates.MustParse("2025-06-08"))
	require.NoError(t, err)
	require.Len(t, days, 6)

	var got []string
	for _, d := range days {
		state := "free"
		if !d.Available {
			state = string(d.OccupiedBy)
		}
		got = append(got, dates.Format(d.Date)+"="+state)
	}
	assert.Equal(t, []string{
		"2025-06-02=free",
		"2025-06-03=reservation",
		"2025-06-04=reservation",
		"2025-06-05=free",
		"2025-06-06=blocked",
		"2025-06-07=free",
	}, got)
}
