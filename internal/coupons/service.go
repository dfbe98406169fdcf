package coupons

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/models"
)

// Store is the coupon persistence the service needs.
type Store interface {
	Lookup
	GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	List(ctx context.Context) ([]*models.Coupon, error)
	ListPublic(ctx context.Context) ([]*models.Coupon, error)
	Create(ctx context.Context, c *models.Coupon) error
	Update(ctx context.Context, c *models.Coupon) error
}

// Service manages coupons.
type Service struct {
	store     Store
	validator *Validator
	logger    *zap.Logger
}

// NewService creates a coupon service.
func NewService(store Store, validator *Validator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, validator: validator, logger: logger}
}

var fieldOf = map[error]string{
	models.ErrCouponCodeRequired:      "code",
	models.ErrCouponDiscountRequired:  "percent_off",
	models.ErrCouponDiscountExclusive: "percent_off",
	models.ErrCouponPercentRange:      "percent_off",
	models.ErrCouponAmountRange:       "amount_off",
	models.ErrCouponWindow:            "valid_to",
	models.ErrCouponMinNights:         "min_nights",
}

func validate(c *models.Coupon) error {
	c.Code = NormalizeCode(c.Code)
	if err := c.Validate(); err != nil {
		return &apperr.ValidationError{Field: fieldOf[err], Reason: err.Error()}
	}
	return nil
}

// Create stores a new coupon after checking its invariants.
func (s *Service) Create(ctx context.Context, c *models.Coupon) error {
	if err := validate(c); err != nil {
		return err
	}
	if err := s.store.Create(ctx, c); err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			return apperr.Invalid("code", "%s already exists", c.Code)
		}
		return err
	}
	s.logger.Info("coupon created", zap.String("code", c.Code))
	return nil
}

// Update replaces a coupon after checking its invariants.
func (s *Service) Update(ctx context.Context, c *models.Coupon) error {
	if err := validate(c); err != nil {
		return err
	}
	if err := s.store.Update(ctx, c); err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			return apperr.Invalid("code", "%s already exists", c.Code)
		}
		return err
	}
	return nil
}

// Get returns a coupon by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	return s.store.GetByID(ctx, id)
}

// List returns every coupon.
func (s *Service) List(ctx context.Context) ([]*models.Coupon, error) {
	return s.store.List(ctx)
}

// ListPublic returns public coupons that could be redeemed today.
func (s *Service) ListPublic(ctx context.Context) ([]*models.Coupon, error) {
	all, err := s.store.ListPublic(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Coupon, 0, len(all))
	for _, c := range all {
		if c.IsPublic && s.validator.Usable(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Validate checks a code against a stay length.
func (s *Service) Validate(ctx context.Context, code string, nights int) (models.Discount, error) {
	return s.validator.Validate(ctx, code, nights)
}
