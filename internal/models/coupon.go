package models

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/villastay/backend/pkg/dates"
)

// Coupon validation errors returned by Coupon.Validate.
var (
	ErrCouponDiscountRequired  = errors.New("coupon must set exactly one of percent_off or amount_off")
	ErrCouponDiscountExclusive = errors.New("coupon cannot set both percent_off and amount_off")
	ErrCouponPercentRange      = errors.New("percent_off must be between 1 and 100")
	ErrCouponAmountRange       = errors.New("amount_off must be positive")
	ErrCouponWindow            = errors.New("valid_to must not be before valid_from")
	ErrCouponMinNights         = errors.New("min_nights must be positive")
	ErrCouponCodeRequired      = errors.New("code is required")
)

// Coupon is a discount code. Exactly one of PercentOff and AmountOff is set.
// ValidFrom and ValidTo are inclusive calendar dates in the property's timezone.
type Coupon struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"`
	Description string     `json:"description,omitempty"`
	PercentOff  *int       `json:"percent_off,omitempty"`
	AmountOff   *int64     `json:"amount_off,omitempty"`
	ValidFrom   *time.Time `json:"valid_from,omitempty"`
	ValidTo     *time.Time `json:"valid_to,omitempty"`
	MinNights   *int       `json:"min_nights,omitempty"`
	IsActive    bool       `json:"is_active"`
	IsPublic    bool       `json:"is_public"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Validate checks the coupon's own invariants (not whether it applies to a stay).
func (c *Coupon) Validate() error {
	if c.Code == "" {
		return ErrCouponCodeRequired
	}
	switch {
	case c.PercentOff != nil && c.AmountOff != nil:
		return ErrCouponDiscountExclusive
	case c.PercentOff == nil && c.AmountOff == nil:
		return ErrCouponDiscountRequired
	case c.PercentOff != nil && (*c.PercentOff < 1 || *c.PercentOff > 100):
		return ErrCouponPercentRange
	case c.AmountOff != nil && *c.AmountOff <= 0:
		return ErrCouponAmountRange
	}
	if c.ValidFrom != nil && c.ValidTo != nil && c.ValidTo.Before(*c.ValidFrom) {
		return ErrCouponWindow
	}
	if c.MinNights != nil && *c.MinNights < 1 {
		return ErrCouponMinNights
	}
	return nil
}

// InWindow reports whether day falls inside the coupon's validity window.
func (c *Coupon) InWindow(day time.Time) bool {
	if c.ValidFrom != nil && day.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidTo != nil && day.After(*c.ValidTo) {
		return false
	}
	return true
}

// Discount returns the discount descriptor carried by the coupon.
func (c *Coupon) Discount() Discount {
	return Discount{Code: c.Code, PercentOff: c.PercentOff, AmountOff: c.AmountOff}
}

func (c Coupon) MarshalJSON() ([]byte, error) {
	type alias Coupon
	var from, to *string
	if c.ValidFrom != nil {
		s := dates.Format(*c.ValidFrom)
		from = &s
	}
	if c.ValidTo != nil {
		s := dates.Format(*c.ValidTo)
		to = &s
	}
	return json.Marshal(struct {
		alias
		ValidFrom *string `json:"valid_from,omitempty"`
		ValidTo   *string `json:"valid_to,omitempty"`
	}{alias(c), from, to})
}

// Discount describes how a validated coupon reduces a price.
type Discount struct {
	Code       string `json:"code"`
	PercentOff *int   `json:"percent_off,omitempty"`
	AmountOff  *int64 `json:"amount_off,omitempty"`
}

// Apply returns the amount to subtract from base, never more than base.
// Percent discounts are truncated to the minor unit.
func (d Discount) Apply(base int64) int64 {
	if base <= 0 {
		return 0
	}
	var off int64
	switch {
	case d.PercentOff != nil:
		off = base * int64(*d.PercentOff) / 100
	case d.AmountOff != nil:
		off = *d.AmountOff
	}
	if off > base {
		off = base
	}
	if off < 0 {
		off = 0
	}
	return off
}
