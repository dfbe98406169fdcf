package settings

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/response"
)

// Store reads and writes settings.
type Store interface {
	Get(ctx context.Context) (models.Settings, error)
	Update(ctx context.Context, s models.Settings) (models.Settings, error)
}

// Handler handles the admin settings endpoints.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates a settings handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// UpdateRequest is the body for PUT /admin/settings.
type UpdateRequest struct {
	SecurityDepositEnabled bool  `json:"security_deposit_enabled"`
	SecurityDepositAmount  int64 `json:"security_deposit_amount"`
}

// Get handles GET /admin/settings.
func (h *Handler) Get(c *gin.Context) {
	s, err := h.store.Get(c.Request.Context())
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, s)
}

// Update handles PUT /admin/settings.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.SecurityDepositAmount < 0 {
		response.Error(c, apperr.Invalid("security_deposit_amount", "must not be negative"))
		return
	}
	if req.SecurityDepositEnabled && req.SecurityDepositAmount == 0 {
		response.Error(c, apperr.Invalid("security_deposit_amount", "is required when the deposit is enabled"))
		return
	}
	s, err := h.store.Update(c.Request.Context(), models.Settings{
		SecurityDepositEnabled: req.SecurityDepositEnabled,
		SecurityDepositAmount:  req.SecurityDepositAmount,
	})
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	h.logger.Info("settings updated",
		zap.Bool("security_deposit_enabled", s.SecurityDepositEnabled),
		zap.Int64("security_deposit_amount", s.SecurityDepositAmount),
	)
	response.OK(c, s)
}
