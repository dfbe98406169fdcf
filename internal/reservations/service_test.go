package reservations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/availability"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/internal/notifications"
	"github.com/villastay/backend/internal/pricing"
	"github.com/villastay/backend/pkg/dates"
)

// memStore keeps copies of reservations so callers only change state through Update.
type memStore struct {
	mu     sync.Mutex
	lock   sync.Mutex
	rows   map[uuid.UUID]models.Reservation
	blocks []*models.BlockedPeriod

	updateErr error // returned by memTx.Update when set
	markErr   error // returned by MarkReminderSent when set
}

func newMemStore() *memStore { return &memStore{rows: make(map[uuid.UUID]models.Reservation)} }

func (m *memStore) WithCalendarLock(_ context.Context, _ uuid.UUID, fn func(tx TxStore) error) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	tx := &memTx{store: m, staged: make(map[uuid.UUID]models.Reservation)}
	if err := fn(tx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range tx.staged {
		m.rows[id] = r
	}
	return nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &r, nil
}

func (m *memStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Reservation
	for _, r := range m.rows {
		if r.UserID == userID {
			r := r
			out = append(out, &r)
		}
	}
	return out, nil
}

func (m *memStore) List(_ context.Context, f ListFilter) ([]*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Reservation
	for _, r := range m.rows {
		if f.Status == "" || r.Status == f.Status {
			r := r
			out = append(out, &r)
		}
	}
	return out, nil
}

func (m *memStore) ListLapsedHolds(_ context.Context, now time.Time, limit int) ([]*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Reservation
	for _, r := range m.rows {
		if r.HoldExpired(now) && len(out) < limit {
			r := r
			out = append(out, &r)
		}
	}
	return out, nil
}

func (m *memStore) ListDueReminders(_ context.Context, from, to time.Time) ([]*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Reservation
	for _, r := range m.rows {
		confirmed := r.Status == models.StatusApproved || r.Status == models.StatusPaid
		if confirmed && r.ReminderSentAt == nil && !r.CheckIn.Before(from) && !r.CheckIn.After(to) {
			r := r
			out = append(out, &r)
		}
	}
	return out, nil
}

func (m *memStore) MarkReminderSent(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return false, m.markErr
	}
	r, ok := m.rows[id]
	if !ok || r.ReminderSentAt != nil {
		return false, nil
	}
	r.ReminderSentAt = &at
	m.rows[id] = r
	return true, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// memTx stages writes until the locked function returns without error.
type memTx struct {
	store  *memStore
	staged map[uuid.UUID]models.Reservation
}

func (t *memTx) ReservationsOverlapping(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]*models.Reservation, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	var out []*models.Reservation
	for id, r := range t.store.rows {
		if s, ok := t.staged[id]; ok {
			r = s
		}
		r := r
		out = append(out, &r)
	}
	for id, r := range t.staged {
		if _, ok := t.store.rows[id]; !ok {
			r := r
			out = append(out, &r)
		}
	}
	return out, nil
}

func (t *memTx) BlockedPeriodsOverlapping(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]*models.BlockedPeriod, error) {
	return t.store.blocks, nil
}

func (t *memTx) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	if r, ok := t.staged[id]; ok {
		return &r, nil
	}
	return t.store.Get(ctx, id)
}

func (t *memTx) Insert(_ context.Context, r *models.Reservation) error {
	r.ID = uuid.New()
	t.staged[r.ID] = *r
	return nil
}

func (t *memTx) Update(_ context.Context, r *models.Reservation) error {
	if t.store.updateErr != nil {
		return t.store.updateErr
	}
	t.staged[r.ID] = *r
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []notifications.Event
	err    error
}

func (r *recorder) Notify(_ context.Context, ev notifications.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) kinds() []models.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.NotificationKind
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var (
	propertyID = uuid.New()
	guest      = models.Identity{UserID: uuid.New(), Email: "guest@example.com", Role: models.RoleGuest}
	otherGuest = models.Identity{UserID: uuid.New(), Email: "other@example.com", Role: models.RoleGuest}
	admin      = models.Identity{UserID: uuid.New(), Email: "admin@example.com", Role: models.RoleAdmin}
)

type fixture struct {
	svc    *Service
	store  *memStore
	quotes *pricing.MemoryQuoteStore
	notes  *recorder
	clock  *testClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jerusalem")
	require.NoError(t, err)
	clock := &testClock{t: time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)}
	store := newMemStore()
	quotes := pricing.NewMemoryQuoteStore(clock.Now)
	notes := &recorder{}
	resolver := availability.NewResolver(nil, loc).WithClock(clock.Now)
	svc := NewService(store, resolver, quotes, notes, 15*time.Minute, nil).WithClock(clock.Now)
	return &fixture{svc: svc, store: store, quotes: quotes, notes: notes, clock: clock}
}

// quote stores a quote for [in, out) and returns the matching hold request.
func (f *fixture) quote(t *testing.T, in, out string) HoldInput {
	t.Helper()
	q := &models.Quote{
		HoldToken:     uuid.NewString(),
		HoldExpiresAt: f.clock.Now().Add(15 * time.Minute),
		PropertyID:    propertyID,
		CheckIn:       dates.MustParse(in),
		CheckOut:      dates.MustParse(out),
		Nights:        dates.NightsBetween(dates.MustParse(in), dates.MustParse(out)),
		Adults:        2,
		Currency:      "ILS",
		BasePrice:     60000,
		Subtotal:      60000,
		Taxes:         10200,
		Total:         70200,
		CreatedAt:     f.clock.Now(),
	}
	require.NoError(t, f.quotes.Save(context.Background(), q, 15*time.Minute))
	return HoldInput{HoldToken: q.HoldToken, CheckIn: q.CheckIn, CheckOut: q.CheckOut, Adults: 2, Total: q.Total}
}

func (f *fixture) book(t *testing.T, in, out string) *models.Reservation {
	t.Helper()
	r, err := f.svc.Book(context.Background(), guest, f.quote(t, in, out))
	require.NoError(t, err)
	return r
}

func (f *fixture) confirm(t *testing.T, in, out string) *models.Reservation {
	t.Helper()
	r := f.book(t, in, out)
	r, err := f.svc.Approve(context.Background(), admin, r.ID)
	require.NoError(t, err)
	return r
}

func TestCreateHoldPersistsPendingHold(t *testing.T) {
	f := newFixture(t)
	req := f.quote(t, "2025-06-10", "2025-06-12")

	r, err := f.svc.CreateHold(context.Background(), guest, req)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, r.Status)
	assert.Equal(t, 2, r.Nights)
	assert.Equal(t, int64(70200), r.Total)
	assert.Equal(t, guest.UserID, r.UserID)
	require.NotNil(t, r.HoldExpiresAt)
	assert.Equal(t, f.clock.Now().Add(15*time.Minute), *r.HoldExpiresAt)

	// the token is consumed
	_, err = f.svc.CreateHold(context.Background(), guest, req)
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "hold_token", ve.Field)
}

func TestCreateHoldConflictLeavesNoRow(t *testing.T) {
	f := newFixture(t)
	f.book(t, "2025-06-10", "2025-06-13")
	require.Equal(t, 1, f.store.count())

	_, err := f.svc.CreateHold(context.Background(), otherGuest, f.quote(t, "2025-06-12", "2025-06-14"))
	var ce *apperr.ConflictError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Conflicts, 1)
	assert.Equal(t, 1, f.store.count())
}

func TestCreateHoldRejectsExpiredToken(t *testing.T) {
	f := newFixture(t)
	req := f.quote(t, "2025-06-10", "2025-06-12")
	f.clock.Advance(16 * time.Minute)

	_, err := f.svc.CreateHold(context.Background(), guest, req)
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "hold_token", ve.Field)
	assert.Equal(t, 0, f.store.count())
}

func TestCreateHoldRejectsAlteredRequest(t *testing.T) {
	f := newFixture(t)
	req := f.quote(t, "2025-06-10", "2025-06-12")

	changed := req
	changed.Total = 100
	_, err := f.svc.CreateHold(context.Background(), guest, changed)
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "total", ve.Field)

	changed = req
	changed.CheckOut = dates.MustParse("2025-06-14")
	_, err = f.svc.CreateHold(context.Background(), guest, changed)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "check_out", ve.Field)
	assert.Equal(t, 0, f.store.count())
}

func TestConcurrentOverlappingHoldsOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	const n = 12
	reqs := make([]HoldInput, n)
	for i := range reqs {
		if i%2 == 0 {
			reqs[i] = f.quote(t, "2025-07-01", "2025-07-05")
		} else {
			reqs[i] = f.quote(t, "2025-07-03", "2025-07-08")
		}
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for _, req := range reqs {
		wg.Add(1)
		go func(req HoldInput) {
			defer wg.Done()
			_, err := f.svc.CreateHold(context.Background(), guest, req)
			mu.Lock()
			defer mu.Unlock()
			var ce *apperr.ConflictError
			switch {
			case err == nil:
				ok++
			case errors.As(err, &ce):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(req)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
	assert.Equal(t, 1, f.store.count())
}

func TestExpiredHoldDoesNotBlockNewHold(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateHold(context.Background(), guest, f.quote(t, "2025-06-10", "2025-06-12"))
	require.NoError(t, err)

	f.clock.Advance(20 * time.Minute)
	r, err := f.svc.CreateHold(context.Background(), otherGuest, f.quote(t, "2025-06-10", "2025-06-12"))
	require.NoError(t, err)
	assert.Equal(t, otherGuest.UserID, r.UserID)
}

func TestBookSubmitsAndNotifies(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, "2025-06-10", "2025-06-12")

	assert.Equal(t, models.StatusAwaitingApproval, r.Status)
	assert.Nil(t, r.HoldExpiresAt)
	assert.Equal(t, []models.NotificationKind{models.NotifyConfirmation, models.NotifyApprovalRequired}, f.notes.kinds())
}

func TestBookFailureLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)
	req := f.quote(t, "2025-06-10", "2025-06-12")

	f.store.updateErr = errors.New("connection reset")
	_, err := f.svc.Book(context.Background(), guest, req)
	require.Error(t, err)
	assert.Equal(t, 0, f.store.count())
	assert.Empty(t, f.notes.kinds())

	// same token, dates still free
	f.store.updateErr = nil
	r, err := f.svc.Book(context.Background(), guest, req)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingApproval, r.Status)
	assert.Nil(t, r.HoldExpiresAt)
	assert.Equal(t, 1, f.store.count())
}

func TestSubmitLapsedHoldWhileDatesFree(t *testing.T) {
	f := newFixture(t)
	hold, err := f.svc.CreateHold(context.Background(), guest, f.quote(t, "2025-06-10", "2025-06-12"))
	require.NoError(t, err)
	f.clock.Advance(time.Hour)

	r, err := f.svc.SubmitForApproval(context.Background(), guest, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingApproval, r.Status)
}

func TestSubmitLapsedHoldAfterDatesTaken(t *testing.T) {
	f := newFixture(t)
	hold, err := f.svc.CreateHold(context.Background(), guest, f.quote(t, "2025-06-10", "2025-06-12"))
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	_, err = f.svc.Book(context.Background(), otherGuest, f.quote(t, "2025-06-11", "2025-06-13"))
	require.NoError(t, err)

	_, err = f.svc.SubmitForApproval(context.Background(), guest, hold.ID)
	var ce *apperr.ConflictError
	require.ErrorAs(t, err, &ce)
}

func TestLifecycleTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.book(t, "2025-06-10", "2025-06-12")

	_, err := f.svc.MarkPaid(ctx, admin, r.ID)
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)

	r, err = f.svc.Approve(ctx, admin, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, r.Status)
	require.NotNil(t, r.ApprovedAt)

	_, err = f.svc.Approve(ctx, admin, r.ID)
	var te *apperr.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, models.StatusApproved, te.From)

	r, err = f.svc.MarkPaid(ctx, admin, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, r.Status)
	require.NotNil(t, r.PaidAt)

	_, err = f.svc.Cancel(ctx, admin, r.ID, "too late")
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestApproveRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, "2025-06-10", "2025-06-12")

	_, err := f.svc.Approve(context.Background(), guest, r.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	stored, err := f.store.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingApproval, stored.Status)
}

func TestDeclineRecordsReason(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, "2025-06-10", "2025-06-12")

	r, err := f.svc.Decline(context.Background(), admin, r.ID, "maintenance")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, r.Status)
	assert.Equal(t, "maintenance", r.CancellationReason)

	f.notes.mu.Lock()
	last := f.notes.events[len(f.notes.events)-1]
	f.notes.mu.Unlock()
	assert.Equal(t, models.NotifyDeclined, last.Kind)
	assert.Equal(t, "maintenance", last.Reason)

	// the dates are free again
	_, err = f.svc.CreateHold(context.Background(), otherGuest, f.quote(t, "2025-06-10", "2025-06-12"))
	require.NoError(t, err)
}

func TestCancelOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.book(t, "2025-06-10", "2025-06-12")

	_, err := f.svc.Cancel(ctx, otherGuest, r.ID, "")
	require.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.Get(ctx, otherGuest, r.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	r, err = f.svc.Cancel(ctx, guest, r.ID, "plans changed")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, r.Status)
	require.NotNil(t, r.CancelledAt)

	_, err = f.svc.Cancel(ctx, guest, r.ID, "again")
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestNotificationFailureKeepsTransition(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, "2025-06-10", "2025-06-12")
	f.notes.err = errors.New("queue down")

	r, err := f.svc.Approve(context.Background(), admin, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, r.Status)

	stored, err := f.store.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, stored.Status)
}

func TestRescheduleOverlappingOwnDates(t *testing.T) {
	f := newFixture(t)
	r := f.confirm(t, "2025-06-10", "2025-06-13")

	r, err := f.svc.Reschedule(context.Background(), admin, r.ID, RescheduleInput{
		CheckIn:  dates.MustParse("2025-06-11"),
		CheckOut: dates.MustParse("2025-06-15"),
		Reason:   "guest request",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, r.Nights)
	assert.Equal(t, "2025-06-11", dates.Format(r.CheckIn))

	f.notes.mu.Lock()
	last := f.notes.events[len(f.notes.events)-1]
	f.notes.mu.Unlock()
	assert.Equal(t, models.NotifyRescheduled, last.Kind)
	require.NotNil(t, last.OldCheckIn)
	assert.Equal(t, "2025-06-10", dates.Format(*last.OldCheckIn))
	assert.Equal(t, "2025-06-13", dates.Format(*last.OldCheckOut))
}

func TestRescheduleIntoOtherStayConflicts(t *testing.T) {
	f := newFixture(t)
	r := f.confirm(t, "2025-06-10", "2025-06-13")
	f.book(t, "2025-06-20", "2025-06-25")

	_, err := f.svc.Reschedule(context.Background(), admin, r.ID, RescheduleInput{
		CheckIn:  dates.MustParse("2025-06-18"),
		CheckOut: dates.MustParse("2025-06-21"),
	})
	var ce *apperr.ConflictError
	require.ErrorAs(t, err, &ce)

	stored, err := f.store.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-10", dates.Format(stored.CheckIn))
}

func TestRescheduleGuards(t *testing.T) {
	f := newFixture(t)
	pending := f.book(t, "2025-06-10", "2025-06-12")

	_, err := f.svc.Reschedule(context.Background(), admin, pending.ID, RescheduleInput{
		CheckIn: dates.MustParse("2025-06-20"), CheckOut: dates.MustParse("2025-06-22"),
	})
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = f.svc.Reschedule(context.Background(), admin, pending.ID, RescheduleInput{
		CheckIn: dates.MustParse("2025-05-20"), CheckOut: dates.MustParse("2025-05-22"),
	})
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "check_in", ve.Field)
}

func TestExpireStaleHolds(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateHold(context.Background(), guest, f.quote(t, "2025-06-10", "2025-06-12"))
	require.NoError(t, err)
	live := f.book(t, "2025-06-20", "2025-06-22")

	n, err := f.svc.ExpireStaleHolds(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	f.clock.Advance(time.Hour)
	notified := len(f.notes.kinds())
	n, err = f.svc.ExpireStaleHolds(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, f.notes.kinds(), notified)

	cancelled, err := f.store.List(context.Background(), ListFilter{Status: models.StatusCancelled})
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, ReasonHoldExpired, cancelled[0].CancellationReason)

	stored, err := f.store.Get(context.Background(), live.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingApproval, stored.Status)
}

func TestSendDueReminders(t *testing.T) {
	f := newFixture(t)
	soon := f.confirm(t, "2025-06-03", "2025-06-05")
	f.confirm(t, "2025-06-20", "2025-06-22")

	n, err := f.svc.SendDueReminders(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := f.store.Get(context.Background(), soon.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.ReminderSentAt)

	n, err = f.svc.SendDueReminders(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSendDueRemindersSkipsWhenMarkFails(t *testing.T) {
	f := newFixture(t)
	f.confirm(t, "2025-06-03", "2025-06-05")
	before := len(f.notes.kinds())

	f.store.markErr = errors.New("connection reset")
	n, err := f.svc.SendDueReminders(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, f.notes.kinds(), before)

	f.store.markErr = nil
	n, err = f.svc.SendDueReminders(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	kinds := f.notes.kinds()
	assert.Equal(t, models.NotifyReminder, kinds[len(kinds)-1])
	assert.Len(t, kinds, before+1)
}

func TestListRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	f.book(t, "2025-06-10", "2025-06-12")

	_, err := f.svc.List(context.Background(), guest, ListFilter{})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.List(context.Background(), admin, ListFilter{Status: "BOGUS"})
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)

	list, err := f.svc.List(context.Background(), admin, ListFilter{Status: models.StatusAwaitingApproval})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	mine, err := f.svc.ListMine(context.Background(), guest)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestTransitionTable(t *testing.T) {
	assert.True(t, CanTransition(models.StatusPending, models.StatusAwaitingApproval))
	assert.True(t, CanTransition(models.StatusApproved, models.StatusCancelled))
	assert.False(t, CanTransition(models.StatusPending, models.StatusApproved))
	assert.False(t, CanTransition(models.StatusCancelled, models.StatusCancelled))
	assert.True(t, IsTerminal(models.StatusPaid))
	assert.True(t, IsTerminal(models.StatusCancelled))
	assert.False(t, IsTerminal(models.StatusApproved))
	assert.False(t, IsValidStatus("DECLINED"))
}
