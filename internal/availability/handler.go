package availability

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/middleware"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/dates"
	"github.com/villastay/backend/pkg/response"
)

// PropertyLocator resolves the villa's id.
type PropertyLocator interface {
	PropertyID(ctx context.Context) (uuid.UUID, error)
}

// Handler handles availability and blocked-period HTTP endpoints.
type Handler struct {
	resolver *Resolver
	blocks   *BlockService
	props    PropertyLocator
	logger   *zap.Logger
}

// NewHandler creates an availability handler.
func NewHandler(resolver *Resolver, blocks *BlockService, props PropertyLocator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{resolver: resolver, blocks: blocks, props: props, logger: logger}
}

// CheckResponse is the body of GET /availability/check.
type CheckResponse struct {
	Available bool              `json:"available"`
	CheckIn   string            `json:"check_in"`
	CheckOut  string            `json:"check_out"`
	Nights    int               `json:"nights"`
	Conflicts []models.Conflict `json:"conflicts"`
}

// Check handles GET /availability/check?check_in=YYYY-MM-DD&check_out=YYYY-MM-DD.
func (h *Handler) Check(c *gin.Context) {
	in, err := apperr.ParseDate("check_in", c.Query("check_in"))
	if err != nil {
		response.Error(c, err)
		return
	}
	out, err := apperr.ParseDate("check_out", c.Query("check_out"))
	if err != nil {
		response.Error(c, err)
		return
	}
	ctx := c.Request.Context()
	propertyID, err := h.props.PropertyID(ctx)
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	conflicts, err := h.resolver.ListConflicts(ctx, Query{PropertyID: propertyID, CheckIn: in, CheckOut: out})
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	if conflicts == nil {
		conflicts = []models.Conflict{}
	}
	response.OK(c, CheckResponse{
		Available: len(conflicts) == 0,
		CheckIn:   dates.Format(in),
		CheckOut:  dates.Format(out),
		Nights:    dates.NightsBetween(in, out),
		Conflicts: conflicts,
	})
}

// Calendar handles GET /availability/calendar?from=&to=. Defaults to the next 90 nights.
func (h *Handler) Calendar(c *gin.Context) {
	from := h.resolver.Today()
	if s := c.Query("from"); s != "" {
		t, err := apperr.ParseDate("from", s)
		if err != nil {
			response.Error(c, err)
			return
		}
		from = t
	}
	to := dates.AddDays(from, 90)
	if s := c.Query("to"); s != "" {
		t, err := apperr.ParseDate("to", s)
		if err != nil {
			response.Error(c, err)
			return
		}
		to = t
	}
	ctx := c.Request.Context()
	propertyID, err := h.props.PropertyID(ctx)
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	days, err := h.resolver.Calendar(ctx, propertyID, from, to)
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"from": dates.Format(from), "to": dates.Format(to), "days": days})
}

// CreateBlockRequest is the body for POST /admin/blocked-periods.
type CreateBlockRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Reason    string `json:"reason"`
}

// CreateBlock handles POST /admin/blocked-periods.
func (h *Handler) CreateBlock(c *gin.Context) {
	var req CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	start, err := apperr.ParseDate("start_date", req.StartDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	end, err := apperr.ParseDate("end_date", req.EndDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	who, err := middleware.Identity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	ctx := c.Request.Context()
	propertyID, err := h.props.PropertyID(ctx)
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	b, err := h.blocks.Create(ctx, CreateBlockInput{
		PropertyID: propertyID,
		StartDate:  start,
		EndDate:    end,
		Reason:     req.Reason,
		CreatedBy:  &who.UserID,
	})
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.Created(c, b)
}

// ListBlocks handles GET /admin/blocked-periods. ?upcoming=true hides blocks that have ended.
func (h *Handler) ListBlocks(c *gin.Context) {
	ctx := c.Request.Context()
	propertyID, err := h.props.PropertyID(ctx)
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	var from *time.Time
	if c.Query("upcoming") == "true" {
		today := h.resolver.Today()
		from = &today
	}
	list, err := h.blocks.List(ctx, propertyID, from)
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	if list == nil {
		list = []*models.BlockedPeriod{}
	}
	response.OK(c, list)
}

// DeleteBlock handles DELETE /admin/blocked-periods/:id.
func (h *Handler) DeleteBlock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid blocked period id")
		return
	}
	if err := h.blocks.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.NoContent(c)
}
