package coupons

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/dates"
	"github.com/villastay/backend/pkg/response"
)

// Handler handles coupon HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a coupon handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// ValidateRequest is the body for POST /coupons/validate. Nights may be given directly or derived from the dates.
type ValidateRequest struct {
	Code     string `json:"code" binding:"required"`
	Nights   int    `json:"nights"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

// Validate handles POST /coupons/validate.
func (h *Handler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "code is required")
		return
	}
	nights := req.Nights
	if req.CheckIn != "" || req.CheckOut != "" {
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
		nights = dates.NightsBetween(in, out)
	}
	d, err := h.svc.Validate(c.Request.Context(), req.Code, nights)
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, d)
}

// ListPublic handles GET /coupons/public.
func (h *Handler) ListPublic(c *gin.Context) {
	list, err := h.svc.ListPublic(c.Request.Context())
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// CouponRequest is the body for POST /admin/coupons and PUT /admin/coupons/:id.
type CouponRequest struct {
	Code        string  `json:"code" binding:"required"`
	Description string  `json:"description"`
	PercentOff  *int    `json:"percent_off"`
	AmountOff   *int64  `json:"amount_off"`
	ValidFrom   *string `json:"valid_from"`
	ValidTo     *string `json:"valid_to"`
	MinNights   *int    `json:"min_nights"`
	IsActive    *bool   `json:"is_active"`
	IsPublic    bool    `json:"is_public"`
}

func (r *CouponRequest) toModel() (*models.Coupon, error) {
	c := &models.Coupon{
		Code:        r.Code,
		Description: r.Description,
		PercentOff:  r.PercentOff,
		AmountOff:   r.AmountOff,
		MinNights:   r.MinNights,
		IsActive:    r.IsActive == nil || *r.IsActive,
		IsPublic:    r.IsPublic,
	}
	if r.ValidFrom != nil && *r.ValidFrom != "" {
		t, err := apperr.ParseDate("valid_from", *r.ValidFrom)
		if err != nil {
			return nil, err
		}
		c.ValidFrom = &t
	}
	if r.ValidTo != nil && *r.ValidTo != "" {
		t, err := apperr.ParseDate("valid_to", *r.ValidTo)
		if err != nil {
			return nil, err
		}
		c.ValidTo = &t
	}
	return c, nil
}

// List handles GET /admin/coupons.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /admin/coupons/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid coupon id")
		return
	}
	coupon, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, coupon)
}

// Create handles POST /admin/coupons.
func (h *Handler) Create(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	coupon, err := req.toModel()
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.svc.Create(c.Request.Context(), coupon); err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.Created(c, coupon)
}

// Update handles PUT /admin/coupons/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid coupon id")
		return
	}
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	coupon, err := req.toModel()
	if err != nil {
		response.Error(c, err)
		return
	}
	coupon.ID = id
	if err := h.svc.Update(c.Request.Context(), coupon); err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, coupon)
}
