package notifications

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/response"
)

// LogReader lists the notification history of a reservation.
type LogReader interface {
	ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]*models.NotificationLog, error)
}

// Handler serves the admin notification endpoints.
type Handler struct {
	logs         LogReader
	reservations ReservationReader
	notifier     Notifier
	logger       *zap.Logger
}

// NewHandler creates a notifications handler.
func NewHandler(logs LogReader, reservations ReservationReader, notifier Notifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logs: logs, reservations: reservations, notifier: notifier, logger: logger}
}

// List handles GET /admin/reservations/:id/notifications.
func (h *Handler) List(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid reservation id")
		return
	}
	logs, err := h.logs.ListByReservation(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	if logs == nil {
		logs = []*models.NotificationLog{}
	}
	response.OK(c, logs)
}

// ResendRequest is the body for POST /admin/reservations/:id/notifications/resend.
type ResendRequest struct {
	Kind   string `json:"kind" binding:"required"`
	Reason string `json:"reason"`
}

// Resend handles POST /admin/reservations/:id/notifications/resend.
func (h *Handler) Resend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid reservation id")
		return
	}
	var body ResendRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "kind required")
		return
	}
	kind := models.NotificationKind(body.Kind)
	if !IsKnownKind(kind) {
		response.Error(c, apperr.Invalid("kind", "unknown notification kind %q", body.Kind))
		return
	}
	ctx := c.Request.Context()
	r, err := h.reservations.Get(ctx, id)
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	reason := body.Reason
	if reason == "" {
		reason = r.CancellationReason
	}
	if err := h.notifier.Notify(ctx, Event{Kind: kind, ReservationID: r.ID, Reason: reason}); err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"message": "resend queued"})
}
