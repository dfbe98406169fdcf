package reservations

import (
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/middleware"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/response"
)

// Handler exposes the reservation lifecycle over HTTP.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a reservations handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// BookRequest redeems a quote. Total must be the quoted total.
type BookRequest struct {
	HoldToken string `json:"hold_token" binding:"required"`
	CheckIn   string `json:"check_in" binding:"required"`
	CheckOut  string `json:"check_out" binding:"required"`
	Adults    int    `json:"adults"`
	Children  int    `json:"children"`
	Total     int64  `json:"total"`
	Notes     string `json:"notes"`
	// HoldOnly leaves the reservation PENDING instead of submitting it for approval.
	HoldOnly bool `json:"hold_only"`
}

// ReasonRequest carries an optional free-text reason.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// RescheduleRequest moves a stay to new dates.
type RescheduleRequest struct {
	CheckIn  string `json:"check_in" binding:"required"`
	CheckOut string `json:"check_out" binding:"required"`
	Reason   string `json:"reason"`
}

// Create handles POST /reservations.
func (h *Handler) Create(c *gin.Context) {
	who, err := middleware.Identity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	in, err := apperr.ParseDate("check_in", req.CheckIn)
	if err != nil {
		response.Error(c, err)
		return
	}
	out, err := apperr.ParseDate("check_out", req.CheckOut)
	if err != nil {
		response.Error(c, err)
		return
	}
	hold := HoldInput{
		HoldToken: req.HoldToken,
		CheckIn:   in,
		CheckOut:  out,
		Adults:    req.Adults,
		Children:  req.Children,
		Total:     req.Total,
		Notes:     req.Notes,
	}
	var r *models.Reservation
	if req.HoldOnly {
		r, err = h.svc.CreateHold(c.Request.Context(), who, hold)
	} else {
		r, err = h.svc.Book(c.Request.Context(), who, hold)
	}
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.Created(c, r)
}

// Submit handles POST /reservations/:id/submit for holds created with hold_only.
func (h *Handler) Submit(c *gin.Context) {
	h.transition(c, func(c *gin.Context, who models.Identity, id uuid.UUID) (*models.Reservation, error) {
		return h.svc.SubmitForApproval(c.Request.Context(), who, id)
	})
}

// Mine handles GET /reservations/mine.
func (h *Handler) Mine(c *gin.Context) {
	who, err := middleware.Identity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.svc.ListMine(c.Request.Context(), who)
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	if list == nil {
		list = []*models.Reservation{}
	}
	response.OK(c, list)
}

// Get handles GET /reservations/:id.
func (h *Handler) Get(c *gin.Context) {
	h.transition(c, func(c *gin.Context, who models.Identity, id uuid.UUID) (*models.Reservation, error) {
		return h.svc.Get(c.Request.Context(), who, id)
	})
}

// Cancel handles POST /reservations/:id/cancel and POST /admin/reservations/:id/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	h.transition(c, func(c *gin.Context, who models.Identity, id uuid.UUID) (*models.Reservation, error) {
		var req ReasonRequest
		if err := bindOptionalJSON(c, &req); err != nil {
			return nil, err
		}
		return h.svc.Cancel(c.Request.Context(), who, id, req.Reason)
	})
}

// List handles GET /admin/reservations?status=&from=&to=&limit=&offset=.
func (h *Handler) List(c *gin.Context) {
	who, err := middleware.Identity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	f := ListFilter{Status: models.ReservationStatus(c.Query("status"))}
	if s := c.Query("from"); s != "" {
		t, err := apperr.ParseDate("from", s)
		if err != nil {
			response.Error(c, err)
			return
		}
		f.From = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := apperr.ParseDate("to", s)
		if err != nil {
			response.Error(c, err)
			return
		}
		f.To = &t
	}
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))
	f.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.svc.List(c.Request.Context(), who, f)
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	if list == nil {
		list = []*models.Reservation{}
	}
	response.OK(c, list)
}

// Approve handles POST /admin/reservations/:id/approve.
func (h *Handler) Approve(c *gin.Context) {
	h.transition(c, func(c *gin.Context, who models.Identity, id uuid.UUID) (*models.Reservation, error) {
		return h.svc.Approve(c.Request.Context(), who, id)
	})
}

// Decline handles POST /admin/reservations/:id/decline.
func (h *Handler) Decline(c *gin.Context) {
	h.transition(c, func(c *gin.Context, who models.Identity, id uuid.UUID) (*models.Reservation, error) {
		var req ReasonRequest
		if err := bindOptionalJSON(c, &req); err != nil {
			return nil, err
		}
		return h.svc.Decline(c.Request.Context(), who, id, req.Reason)
	})
}

// MarkPaid handles POST /admin/reservations/:id/pay.
func (h *Handler) MarkPaid(c *gin.Context) {
	h.transition(c, func(c *gin.Context, who models.Identity, id uuid.UUID) (*models.Reservation, error) {
		return h.svc.MarkPaid(c.Request.Context(), who, id)
	})
}

// Reschedule handles POST /admin/reservations/:id/reschedule.
func (h *Handler) Reschedule(c *gin.Context) {
	h.transition(c, func(c *gin.Context, who models.Identity, id uuid.UUID) (*models.Reservation, error) {
		var req RescheduleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, apperr.Invalid("", "invalid request: %s", err.Error())
		}
		var in, out time.Time
		var err error
		if in, err = apperr.ParseDate("check_in", req.CheckIn); err != nil {
			return nil, err
		}
		if out, err = apperr.ParseDate("check_out", req.CheckOut); err != nil {
			return nil, err
		}
		return h.svc.Reschedule(c.Request.Context(), who, id, RescheduleInput{CheckIn: in, CheckOut: out, Reason: req.Reason})
	})
}

// bindOptionalJSON accepts an empty body but rejects a malformed one.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Invalid("body", "malformed JSON: %v", err)
	}
	return nil
}

func (h *Handler) transition(c *gin.Context, fn func(*gin.Context, models.Identity, uuid.UUID) (*models.Reservation, error)) {
	who, err := middleware.Identity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid reservation id")
		return
	}
	r, err := fn(c, who, id)
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, r)
}
