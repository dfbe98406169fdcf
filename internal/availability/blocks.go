package availability

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/dates"
)

// BlockTx is the calendar view available while the calendar lock is held.
type BlockTx interface {
	Source
	InsertBlockedPeriod(ctx context.Context, b *models.BlockedPeriod) error
}

// BlockStore persists blocked periods.
type BlockStore interface {
	WithCalendarLock(ctx context.Context, propertyID uuid.UUID, fn func(tx BlockTx) error) error
	ListBlockedPeriods(ctx context.Context, propertyID uuid.UUID, from *time.Time) ([]*models.BlockedPeriod, error)
	DeleteBlockedPeriod(ctx context.Context, id uuid.UUID) error
}

// BlockService lets admins close dates to bookings.
type BlockService struct {
	store    BlockStore
	resolver *Resolver
	logger   *zap.Logger
}

// NewBlockService creates a block service.
func NewBlockService(store BlockStore, resolver *Resolver, logger *zap.Logger) *BlockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlockService{store: store, resolver: resolver, logger: logger}
}

// CreateBlockInput describes a new blocked period. Both dates are blocked.
type CreateBlockInput struct {
	PropertyID uuid.UUID
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
	CreatedBy  *uuid.UUID
}

// Create blocks [StartDate, EndDate]. It fails with a ConflictError when any of those days is
// already taken by an active reservation or another block.
func (s *BlockService) Create(ctx context.Context, in CreateBlockInput) (*models.BlockedPeriod, error) {
	start, end := dates.Normalize(in.StartDate), dates.Normalize(in.EndDate)
	if in.StartDate.IsZero() {
		return nil, apperr.Invalid("start_date", "is required")
	}
	if in.EndDate.IsZero() {
		return nil, apperr.Invalid("end_date", "is required")
	}
	if end.Before(start) {
		return nil, apperr.Invalid("end_date", "must not be before start_date")
	}
	if end.Before(s.resolver.Today()) {
		return nil, apperr.Invalid("end_date", "must not be in the past")
	}

	b := &models.BlockedPeriod{
		PropertyID: in.PropertyID,
		StartDate:  start,
		EndDate:    end,
		Reason:     strings.TrimSpace(in.Reason),
		CreatedBy:  in.CreatedBy,
	}
	err := s.store.WithCalendarLock(ctx, in.PropertyID, func(tx BlockTx) error {
		conflicts, err := s.resolver.On(tx).DayConflicts(ctx, in.PropertyID, start, end)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return &apperr.ConflictError{Conflicts: conflicts}
		}
		return tx.InsertBlockedPeriod(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("dates blocked",
		zap.String("blocked_period_id", b.ID.String()),
		zap.String("start_date", dates.Format(start)),
		zap.String("end_date", dates.Format(end)),
	)
	return b, nil
}

// List returns blocks, optionally only those ending on or after from.
func (s *BlockService) List(ctx context.Context, propertyID uuid.UUID, from *time.Time) ([]*models.BlockedPeriod, error) {
	return s.store.ListBlockedPeriods(ctx, propertyID, from)
}

// Delete reopens the dates of a block.
func (s *BlockService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteBlockedPeriod(ctx, id); err != nil {
		return err
	}
	s.logger.Info("blocked period removed", zap.String("blocked_period_id", id.String()))
	return nil
}
