package availability

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/dates"
)

func blockInput(start, end string) CreateBlockInput {
	return CreateBlockInput{PropertyID: propertyID, StartDate: dates.MustParse(start), EndDate: dates.MustParse(end), Reason: "maintenance"}
}

func TestCreateBlockRejectsActiveReservation(t *testing.T) {
	cal := &memCalendar{reservations: []*models.Reservation{reservation(models.StatusApproved, "2025-06-10", "2025-06-12")}}
	svc := NewBlockService(cal, newResolver(cal), nil)

	_, err := svc.Create(context.Background(), blockInput("2025-06-11", "2025-06-11"))
	var ce *apperr.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Empty(t, cal.blocks)

	// the check-out day is free for a block
	b, err := svc.Create(context.Background(), blockInput("2025-06-12", "2025-06-13"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, b.ID)
	assert.Equal(t, "maintenance", b.Reason)
}

func TestCreateBlockRejectsOverlappingBlock(t *testing.T) {
	cal := &memCalendar{}
	svc := NewBlockService(cal, newResolver(cal), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, blockInput("2025-06-10", "2025-06-12"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, blockInput("2025-06-12", "2025-06-14"))
	var ce *apperr.ConflictError
	require.ErrorAs(t, err, &ce)

	_, err = svc.Create(ctx, blockInput("2025-06-13", "2025-06-14"))
	require.NoError(t, err, "adjacent blocks are allowed")
	assert.Len(t, cal.blocks, 2)
}

func TestCreateBlockValidation(t *testing.T) {
	cal := &memCalendar{}
	svc := NewBlockService(cal, newResolver(cal), nil)
	var ve *apperr.ValidationError

	_, err := svc.Create(context.Background(), blockInput("2025-06-12", "2025-06-10"))
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "end_date", ve.Field)

	_, err = svc.Create(context.Background(), blockInput("2025-05-01", "2025-05-03"))
	require.ErrorAs(t, err, &ve)
}

func TestDeleteBlock(t *testing.T) {
	cal := &memCalendar{}
	svc := NewBlockService(cal, newResolver(cal), nil)
	b, err := svc.Create(context.Background(), blockInput("2025-06-10", "2025-06-12"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), b.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), b.ID), apperr.ErrNotFound)
}

func TestBlockOnCheckOutDayTouchesStayRange(t *testing.T) {
	existing := reservation(models.StatusApproved, "2025-06-10", "2025-06-12")
	cal := &memCalendar{reservations: []*models.Reservation{existing}}
	r := newResolver(cal)
	svc := NewBlockService(cal, r, nil)

	_, err := svc.Create(context.Background(), blockInput("2025-06-12", "2025-06-12"))
	require.NoError(t, err)

	// blocks are inclusive, so the stay's own range now touches the block
	self := existing.ID
	q := stay("2025-06-10", "2025-06-12")
	q.ExcludeReservationID = &self
	conflicts, err := r.ListConflicts(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictBlocked, conflicts[0].Kind)
}
