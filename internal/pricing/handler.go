package pricing

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/dates"
	"github.com/villastay/backend/pkg/response"
)

// Handler handles quote and pricing-admin HTTP endpoints.
type Handler struct {
	engine *Engine
	admin  *Admin
	logger *zap.Logger
}

// NewHandler creates a pricing handler.
func NewHandler(engine *Engine, admin *Admin, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: engine, admin: admin, logger: logger}
}

// QuoteBody is the body for POST /quotes.
type QuoteBody struct {
	CheckIn    string `json:"check_in" binding:"required"`
	CheckOut   string `json:"check_out" binding:"required"`
	Adults     int    `json:"adults"`
	Children   int    `json:"children"`
	CouponCode string `json:"coupon_code"`
}

// Quote handles POST /quotes.
func (h *Handler) Quote(c *gin.Context) {
	var body QuoteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "check_in and check_out are required")
		return
	}
	in, err := apperr.ParseDate("check_in", body.CheckIn)
	if err != nil {
		response.Error(c, err)
		return
	}
	out, err := apperr.ParseDate("check_out", body.CheckOut)
	if err != nil {
		response.Error(c, err)
		return
	}
	if body.Adults == 0 && body.Children == 0 {
		body.Adults = 1
	}
	q, err := h.engine.Quote(c.Request.Context(), QuoteRequest{
		CheckIn:    in,
		CheckOut:   out,
		Adults:     body.Adults,
		Children:   body.Children,
		CouponCode: body.CouponCode,
	})
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, q)
}

// PropertyBody is the body for PUT /admin/property.
type PropertyBody struct {
	Name            string `json:"name" binding:"required"`
	Currency        string `json:"currency"`
	WeekdayRate     int64  `json:"weekday_rate"`
	WeekendRate     *int64 `json:"weekend_rate"`
	WeekendDays     []int  `json:"weekend_days"`
	AdultSupplement int64  `json:"adult_supplement"`
	ChildSupplement int64  `json:"child_supplement"`
	CleaningFee     int64  `json:"cleaning_fee"`
	VATBps          int    `json:"vat_bps"`
	MinNights       int    `json:"min_nights"`
	MaxNights       int    `json:"max_nights"`
	MaxOccupancy    int    `json:"max_occupancy"`
}

// GetProperty handles GET /admin/property.
func (h *Handler) GetProperty(c *gin.Context) {
	p, err := h.admin.Property(c.Request.Context())
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, p)
}

// SaveProperty handles PUT /admin/property.
func (h *Handler) SaveProperty(c *gin.Context) {
	var body PropertyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p := &models.Property{
		Name:            body.Name,
		Currency:        body.Currency,
		WeekdayRate:     body.WeekdayRate,
		WeekendRate:     body.WeekendRate,
		AdultSupplement: body.AdultSupplement,
		ChildSupplement: body.ChildSupplement,
		CleaningFee:     body.CleaningFee,
		VATBps:          body.VATBps,
		MinNights:       body.MinNights,
		MaxNights:       body.MaxNights,
		MaxOccupancy:    body.MaxOccupancy,
	}
	for _, d := range body.WeekendDays {
		p.WeekendDays = append(p.WeekendDays, time.Weekday(d))
	}
	if err := h.admin.SaveProperty(c.Request.Context(), p); err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, p)
}

// SeasonBody is the body for POST /admin/seasons and PUT /admin/seasons/:id.
type SeasonBody struct {
	Name        string `json:"name" binding:"required"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
	NightlyRate int64  `json:"nightly_rate"`
}

func (b *SeasonBody) toModel() (*models.Season, error) {
	start, err := apperr.ParseDate("start_date", b.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := apperr.ParseDate("end_date", b.EndDate)
	if err != nil {
		return nil, err
	}
	return &models.Season{Name: b.Name, StartDate: start, EndDate: end, NightlyRate: b.NightlyRate}, nil
}

// ListSeasons handles GET /admin/seasons.
func (h *Handler) ListSeasons(c *gin.Context) {
	list, err := h.admin.Seasons(c.Request.Context())
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	if list == nil {
		list = []*models.Season{}
	}
	response.OK(c, list)
}

// CreateSeason handles POST /admin/seasons.
func (h *Handler) CreateSeason(c *gin.Context) {
	var body SeasonBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s, err := body.toModel()
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.admin.SaveSeason(c.Request.Context(), s); err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.Created(c, s)
}

// UpdateSeason handles PUT /admin/seasons/:id.
func (h *Handler) UpdateSeason(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid season id")
		return
	}
	var body SeasonBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s, err := body.toModel()
	if err != nil {
		response.Error(c, err)
		return
	}
	s.ID = id
	if err := h.admin.SaveSeason(c.Request.Context(), s); err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, s)
}

// DeleteSeason handles DELETE /admin/seasons/:id.
func (h *Handler) DeleteSeason(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid season id")
		return
	}
	if err := h.admin.DeleteSeason(c.Request.Context(), id); err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.NoContent(c)
}

// CustomPricingBody is the body for PUT /admin/custom-pricing/:date.
type CustomPricingBody struct {
	NightlyRate     int64  `json:"nightly_rate"`
	AdultSupplement *int64 `json:"adult_supplement"`
	ChildSupplement *int64 `json:"child_supplement"`
	Note            string `json:"note"`
}

// ListCustomPricing handles GET /admin/custom-pricing?from=&to=. Defaults to the next 90 days.
func (h *Handler) ListCustomPricing(c *gin.Context) {
	from := dates.Normalize(time.Now())
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
	list, err := h.admin.CustomPricing(c.Request.Context(), from, to)
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	if list == nil {
		list = []*models.CustomPricingEntry{}
	}
	response.OK(c, list)
}

// SetCustomPricing handles PUT /admin/custom-pricing/:date.
func (h *Handler) SetCustomPricing(c *gin.Context) {
	date, err := apperr.ParseDate("date", c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var body CustomPricingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	e := &models.CustomPricingEntry{
		Date:            date,
		NightlyRate:     body.NightlyRate,
		AdultSupplement: body.AdultSupplement,
		ChildSupplement: body.ChildSupplement,
		Note:            body.Note,
	}
	if err := h.admin.SetCustomPricing(c.Request.Context(), e); err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, e)
}

// ClearCustomPricing handles DELETE /admin/custom-pricing/:date.
func (h *Handler) ClearCustomPricing(c *gin.Context) {
	date, err := apperr.ParseDate("date", c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.admin.ClearCustomPricing(c.Request.Context(), date); err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.NoContent(c)
}
