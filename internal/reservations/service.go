package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/availability"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/internal/notifications"
	"github.com/villastay/backend/internal/pricing"
	"github.com/villastay/backend/pkg/dates"
	"github.com/villastay/backend/pkg/metrics"
)

// ReasonHoldExpired is the cancellation reason the reaper records.
const ReasonHoldExpired = "hold_expired"

// HoldInput is a guest's request to turn a quote into a hold. The dates, guests
// and total must be those of the quote the token was issued for.
type HoldInput struct {
	HoldToken string
	CheckIn   time.Time
	CheckOut  time.Time
	Adults    int
	Children  int
	Total     int64
	Notes     string
}

// RescheduleInput moves a confirmed stay to new dates.
type RescheduleInput struct {
	CheckIn  time.Time
	CheckOut time.Time
	Reason   string
}

// Service runs the reservation lifecycle.
type Service struct {
	store    Store
	resolver *availability.Resolver
	quotes   pricing.QuoteStore
	notifier notifications.Notifier
	holdTTL  time.Duration
	now      func() time.Time
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewService creates a reservation service. The resolver decides availability and "today".
// holdTTL <= 0 uses pricing.DefaultHoldTTL.
func NewService(store Store, resolver *availability.Resolver, quotes pricing.QuoteStore, notifier notifications.Notifier, holdTTL time.Duration, logger *zap.Logger) *Service {
	if holdTTL <= 0 {
		holdTTL = pricing.DefaultHoldTTL
	}
	if notifier == nil {
		notifier = notifications.Nop
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		resolver: resolver,
		quotes:   quotes,
		notifier: notifier,
		holdTTL:  holdTTL,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock replaces the wall clock used for hold expiry and lifecycle stamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithMetrics records lifecycle counters on m.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// CreateHold redeems a quote token for a PENDING reservation. Availability is
// re-checked under the calendar lock so two overlapping holds cannot both land.
func (s *Service) CreateHold(ctx context.Context, caller models.Identity, in HoldInput) (*models.Reservation, error) {
	return s.placeHold(ctx, caller, in, false)
}

// placeHold inserts the hold and, when submit is set, advances it to
// AWAITING_APPROVAL in the same transaction. The token is consumed only after commit.
func (s *Service) placeHold(ctx context.Context, caller models.Identity, in HoldInput, submit bool) (*models.Reservation, error) {
	if in.HoldToken == "" {
		return nil, apperr.Invalid("hold_token", "is required")
	}
	q, err := s.quotes.Get(ctx, in.HoldToken)
	if errors.Is(err, pricing.ErrQuoteNotFound) {
		return nil, apperr.Invalid("hold_token", "quote expired or unknown, request a new quote")
	}
	if err != nil {
		return nil, fmt.Errorf("load quote: %w", err)
	}
	now := s.now()
	if !now.Before(q.HoldExpiresAt) {
		return nil, apperr.Invalid("hold_token", "quote expired or unknown, request a new quote")
	}
	if err := matchQuote(q, in); err != nil {
		return nil, err
	}

	expires := now.Add(s.holdTTL)
	r := &models.Reservation{
		PropertyID:           q.PropertyID,
		UserID:               caller.UserID,
		CheckIn:              q.CheckIn,
		CheckOut:             q.CheckOut,
		Nights:               q.Nights,
		Adults:               q.Adults,
		Children:             q.Children,
		BasePrice:            q.BasePrice,
		AdultSupplementTotal: q.AdultSupplement,
		ChildSupplementTotal: q.ChildSupplement,
		Subtotal:             q.Subtotal,
		Fees:                 q.Fees,
		Discount:             q.Discount,
		Taxes:                q.Taxes,
		Total:                q.Total,
		Currency:             q.Currency,
		CouponCode:           q.CouponCode,
		Status:               models.StatusPending,
		HoldExpiresAt:        &expires,
		Notes:                in.Notes,
	}
	err = s.store.WithCalendarLock(ctx, r.PropertyID, func(tx TxStore) error {
		if err := s.resolver.On(tx).CheckStay(ctx, availability.Query{
			PropertyID: r.PropertyID,
			CheckIn:    r.CheckIn,
			CheckOut:   r.CheckOut,
		}); err != nil {
			return err
		}
		if err := tx.Insert(ctx, r); err != nil {
			return err
		}
		if !submit {
			return nil
		}
		if err := checkTransition(r, models.StatusAwaitingApproval); err != nil {
			return err
		}
		r.Status = models.StatusAwaitingApproval
		r.HoldExpiresAt = nil
		return tx.Update(ctx, r)
	})
	if err != nil {
		var ce *apperr.ConflictError
		if errors.As(err, &ce) && s.metrics != nil {
			s.metrics.HoldConflicts.Inc()
		}
		return nil, err
	}
	if err := s.quotes.Delete(ctx, in.HoldToken); err != nil {
		s.logger.Warn("consume hold token", zap.String("reservation_id", r.ID.String()), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.HoldsCreated.Inc()
		if submit {
			s.metrics.Transitions.WithLabelValues(string(r.Status)).Inc()
		}
	}
	s.logger.Info("hold created",
		zap.String("reservation_id", r.ID.String()),
		zap.String("status", string(r.Status)),
		zap.String("check_in", dates.Format(r.CheckIn)),
		zap.String("check_out", dates.Format(r.CheckOut)),
		zap.Int64("total", r.Total),
	)
	if submit {
		s.notify(ctx, notifications.Event{Kind: models.NotifyConfirmation, ReservationID: r.ID})
		s.notify(ctx, notifications.Event{Kind: models.NotifyApprovalRequired, ReservationID: r.ID})
	}
	return r, nil
}

func matchQuote(q *models.Quote, in HoldInput) error {
	mismatch := func(field string) error {
		return &apperr.ValidationError{
			Field:  field,
			Reason: "does not match the quote, request a new quote",
			Detail: map[string]any{"quote_check_in": dates.Format(q.CheckIn), "quote_check_out": dates.Format(q.CheckOut), "quote_total": q.Total},
		}
	}
	switch {
	case !in.CheckIn.Equal(q.CheckIn):
		return mismatch("check_in")
	case !in.CheckOut.Equal(q.CheckOut):
		return mismatch("check_out")
	case in.Total != q.Total:
		return mismatch("total")
	case in.Adults != 0 && in.Adults != q.Adults:
		return mismatch("adults")
	case in.Children != 0 && in.Children != q.Children:
		return mismatch("children")
	}
	return nil
}

// SubmitForApproval moves the caller's hold to AWAITING_APPROVAL. A lapsed hold is
// accepted only while its dates are still free.
func (s *Service) SubmitForApproval(ctx context.Context, caller models.Identity, id uuid.UUID) (*models.Reservation, error) {
	r, err := s.mutate(ctx, caller, id, false, func(tx TxStore, r *models.Reservation) error {
		if err := checkTransition(r, models.StatusAwaitingApproval); err != nil {
			return err
		}
		if r.HoldExpired(s.now()) {
			self := r.ID
			conflicts, err := s.resolver.On(tx).ListConflicts(ctx, availability.Query{
				PropertyID:           r.PropertyID,
				CheckIn:              r.CheckIn,
				CheckOut:             r.CheckOut,
				ExcludeReservationID: &self,
			})
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return &apperr.ConflictError{Conflicts: conflicts}
			}
		}
		r.Status = models.StatusAwaitingApproval
		r.HoldExpiresAt = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, notifications.Event{Kind: models.NotifyConfirmation, ReservationID: r.ID})
	s.notify(ctx, notifications.Event{Kind: models.NotifyApprovalRequired, ReservationID: r.ID})
	return r, nil
}

// Book creates a hold and submits it for approval atomically: either the stay is
// awaiting approval or nothing was written and the token is still redeemable.
func (s *Service) Book(ctx context.Context, caller models.Identity, in HoldInput) (*models.Reservation, error) {
	return s.placeHold(ctx, caller, in, true)
}

// Approve accepts a reservation awaiting approval.
func (s *Service) Approve(ctx context.Context, caller models.Identity, id uuid.UUID) (*models.Reservation, error) {
	r, err := s.mutate(ctx, caller, id, true, func(_ TxStore, r *models.Reservation) error {
		if err := checkTransition(r, models.StatusApproved); err != nil {
			return err
		}
		now := s.now()
		r.Status = models.StatusApproved
		r.ApprovedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, notifications.Event{Kind: models.NotifyApproved, ReservationID: r.ID})
	return r, nil
}

// MarkPaid records payment for an approved reservation.
func (s *Service) MarkPaid(ctx context.Context, caller models.Identity, id uuid.UUID) (*models.Reservation, error) {
	return s.mutate(ctx, caller, id, true, func(_ TxStore, r *models.Reservation) error {
		if err := checkTransition(r, models.StatusPaid); err != nil {
			return err
		}
		now := s.now()
		r.Status = models.StatusPaid
		r.PaidAt = &now
		return nil
	})
}

// Decline cancels a reservation on the admin's behalf and tells the guest why.
func (s *Service) Decline(ctx context.Context, caller models.Identity, id uuid.UUID, reason string) (*models.Reservation, error) {
	r, err := s.mutate(ctx, caller, id, true, s.cancelWith(reason))
	if err != nil {
		return nil, err
	}
	s.notify(ctx, notifications.Event{Kind: models.NotifyDeclined, ReservationID: r.ID, Reason: reason})
	return r, nil
}

// Cancel cancels a non-terminal reservation. Guests may cancel only their own.
func (s *Service) Cancel(ctx context.Context, caller models.Identity, id uuid.UUID, reason string) (*models.Reservation, error) {
	r, err := s.mutate(ctx, caller, id, false, s.cancelWith(reason))
	if err != nil {
		return nil, err
	}
	s.notify(ctx, notifications.Event{Kind: models.NotifyCancelled, ReservationID: r.ID, Reason: reason})
	return r, nil
}

func (s *Service) cancelWith(reason string) func(TxStore, *models.Reservation) error {
	return func(_ TxStore, r *models.Reservation) error {
		if err := checkTransition(r, models.StatusCancelled); err != nil {
			return err
		}
		now := s.now()
		r.Status = models.StatusCancelled
		r.CancelledAt = &now
		r.CancellationReason = reason
		r.HoldExpiresAt = nil
		return nil
	}
}

// Reschedule moves an approved or paid stay. The reservation's own nights do not
// count as conflicts.
func (s *Service) Reschedule(ctx context.Context, caller models.Identity, id uuid.UUID, in RescheduleInput) (*models.Reservation, error) {
	if err := s.resolver.ValidateStay(in.CheckIn, in.CheckOut); err != nil {
		return nil, err
	}
	var oldIn, oldOut time.Time
	r, err := s.mutate(ctx, caller, id, true, func(tx TxStore, r *models.Reservation) error {
		if !canReschedule(r.Status) {
			return fmt.Errorf("%w: only APPROVED or PAID reservations can be rescheduled, this one is %s",
				apperr.ErrInvalidTransition, r.Status)
		}
		self := r.ID
		if err := s.resolver.On(tx).CheckStay(ctx, availability.Query{
			PropertyID:           r.PropertyID,
			CheckIn:              in.CheckIn,
			CheckOut:             in.CheckOut,
			ExcludeReservationID: &self,
		}); err != nil {
			var ce *apperr.ConflictError
			if errors.As(err, &ce) && s.metrics != nil {
				s.metrics.HoldConflicts.Inc()
			}
			return err
		}
		oldIn, oldOut = r.CheckIn, r.CheckOut
		r.CheckIn, r.CheckOut = in.CheckIn, in.CheckOut
		r.Nights = dates.NightsBetween(in.CheckIn, in.CheckOut)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, notifications.Event{
		Kind:          models.NotifyRescheduled,
		ReservationID: r.ID,
		Reason:        in.Reason,
		OldCheckIn:    &oldIn,
		OldCheckOut:   &oldOut,
	})
	return r, nil
}

// ExpireStaleHolds cancels up to limit PENDING reservations whose hold has lapsed.
// Lapsed holds already stop blocking the calendar; this only settles their status.
func (s *Service) ExpireStaleHolds(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	lapsed, err := s.store.ListLapsedHolds(ctx, s.now(), limit)
	if err != nil {
		return 0, fmt.Errorf("list lapsed holds: %w", err)
	}
	expired := 0
	for _, l := range lapsed {
		err := s.store.WithCalendarLock(ctx, l.PropertyID, func(tx TxStore) error {
			r, err := tx.GetForUpdate(ctx, l.ID)
			if err != nil {
				return err
			}
			// submitted or cancelled since it was listed
			if !r.HoldExpired(s.now()) {
				return nil
			}
			if err := s.cancelWith(ReasonHoldExpired)(tx, r); err != nil {
				return err
			}
			if err := tx.Update(ctx, r); err != nil {
				return err
			}
			expired++
			return nil
		})
		if err != nil {
			s.logger.Error("expire hold", zap.String("reservation_id", l.ID.String()), zap.Error(err))
			continue
		}
	}
	if s.metrics != nil && expired > 0 {
		s.metrics.HoldsExpired.Add(float64(expired))
		s.metrics.Transitions.WithLabelValues(string(models.StatusCancelled)).Add(float64(expired))
	}
	if expired > 0 {
		s.logger.Info("expired stale holds", zap.Int("count", expired))
	}
	return expired, nil
}

// SendDueReminders queues a reminder for every confirmed stay checking in within
// leadDays of today (property-local) that has not been reminded yet.
func (s *Service) SendDueReminders(ctx context.Context, leadDays int) (int, error) {
	if leadDays < 0 {
		leadDays = 0
	}
	today := s.resolver.Today()
	due, err := s.store.ListDueReminders(ctx, today, dates.AddDays(today, leadDays))
	if err != nil {
		return 0, fmt.Errorf("list due reminders: %w", err)
	}
	sent := 0
	for _, r := range due {
		// claim first so a failed write never leads to a second reminder
		claimed, err := s.store.MarkReminderSent(ctx, r.ID, s.now())
		if err != nil {
			s.logger.Error("mark reminder sent", zap.String("reservation_id", r.ID.String()), zap.Error(err))
			continue
		}
		if !claimed {
			continue
		}
		if err := s.notifier.Notify(ctx, notifications.Event{Kind: models.NotifyReminder, ReservationID: r.ID}); err != nil {
			s.logger.Error("queue reminder", zap.String("reservation_id", r.ID.String()), zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}

// Get returns a reservation the caller owns, or any reservation for an admin.
func (s *Service) Get(ctx context.Context, caller models.Identity, id uuid.UUID) (*models.Reservation, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(caller, r, false); err != nil {
		return nil, err
	}
	return r, nil
}

// ListMine returns the caller's reservations.
func (s *Service) ListMine(ctx context.Context, caller models.Identity) ([]*models.Reservation, error) {
	return s.store.ListByUser(ctx, caller.UserID)
}

// List returns reservations for the admin dashboard.
func (s *Service) List(ctx context.Context, caller models.Identity, f ListFilter) ([]*models.Reservation, error) {
	if !caller.IsAdmin() {
		return nil, apperr.ErrForbidden
	}
	if f.Status != "" && !IsValidStatus(f.Status) {
		return nil, apperr.Invalid("status", "unknown status %q", f.Status)
	}
	return s.store.List(ctx, f)
}

func authorize(caller models.Identity, r *models.Reservation, adminOnly bool) error {
	if caller.IsAdmin() {
		return nil
	}
	if adminOnly || r.UserID != caller.UserID {
		return apperr.ErrForbidden
	}
	return nil
}

// mutate applies fn to the locked row and persists it. Authorization is checked
// before anything is locked or written.
func (s *Service) mutate(ctx context.Context, caller models.Identity, id uuid.UUID, adminOnly bool, fn func(tx TxStore, r *models.Reservation) error) (*models.Reservation, error) {
	if adminOnly && !caller.IsAdmin() {
		return nil, apperr.ErrForbidden
	}
	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(caller, cur, adminOnly); err != nil {
		return nil, err
	}
	var out *models.Reservation
	err = s.store.WithCalendarLock(ctx, cur.PropertyID, func(tx TxStore) error {
		r, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(tx, r); err != nil {
			return err
		}
		if err := tx.Update(ctx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.Transitions.WithLabelValues(string(out.Status)).Inc()
	}
	s.logger.Info("reservation updated",
		zap.String("reservation_id", out.ID.String()),
		zap.String("status", string(out.Status)),
		zap.String("by", caller.UserID.String()),
	)
	return out, nil
}

// notify hands ev to the notifier. The transition it reports is already committed.
func (s *Service) notify(ctx context.Context, ev notifications.Event) {
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.logger.Error("notify",
			zap.String("kind", string(ev.Kind)),
			zap.String("reservation_id", ev.ReservationID.String()),
			zap.Error(err),
		)
	}
}
