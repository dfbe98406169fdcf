// Package coupons validates discount codes and manages them for admins.
package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/dates"
)

// Reasons reported in apperr.CouponError.
const (
	ReasonNotFound  = "coupon does not exist"
	ReasonInactive  = "coupon is not active"
	ReasonNotYet    = "coupon is not valid yet"
	ReasonExpired   = "coupon has expired"
	ReasonMinNights = "stay is too short for this coupon"
	ReasonInvalid   = "coupon is misconfigured"
)

// Lookup finds coupons by their normalized code.
type Lookup interface {
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
}

// Validator decides whether a code may be applied to a stay of a given length.
type Validator struct {
	coupons Lookup
	loc     *time.Location
	now     func() time.Time
}

// NewValidator creates a validator. loc is the property's timezone for validity windows.
func NewValidator(coupons Lookup, loc *time.Location) *Validator {
	if loc == nil {
		loc = time.UTC
	}
	return &Validator{coupons: coupons, loc: loc, now: time.Now}
}

// WithClock returns a copy of the validator reading the time from now.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	cp := *v
	cp.now = now
	return &cp
}

// NormalizeCode trims and upper-cases a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate returns the discount for code, or an *apperr.CouponError explaining why it cannot be used.
// nights <= 0 skips the minimum-nights rule.
func (v *Validator) Validate(ctx context.Context, code string, nights int) (models.Discount, error) {
	code = NormalizeCode(code)
	if code == "" {
		return models.Discount{}, &apperr.CouponError{Code: code, Reason: ReasonNotFound}
	}
	c, err := v.coupons.GetByCode(ctx, code)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.Discount{}, &apperr.CouponError{Code: code, Reason: ReasonNotFound}
	}
	if err != nil {
		return models.Discount{}, fmt.Errorf("load coupon: %w", err)
	}
	if reason := v.check(c, nights); reason != "" {
		return models.Discount{}, &apperr.CouponError{Code: code, Reason: reason}
	}
	return c.Discount(), nil
}

func (v *Validator) check(c *models.Coupon, nights int) string {
	if !c.IsActive {
		return ReasonInactive
	}
	if c.Validate() != nil {
		return ReasonInvalid
	}
	today := dates.Today(v.loc, v.now())
	if c.ValidFrom != nil && today.Before(*c.ValidFrom) {
		return ReasonNotYet
	}
	if c.ValidTo != nil && today.After(*c.ValidTo) {
		return ReasonExpired
	}
	if nights > 0 && c.MinNights != nil && nights < *c.MinNights {
		return fmt.Sprintf("%s (minimum %d nights)", ReasonMinNights, *c.MinNights)
	}
	return ""
}

// Usable reports whether c would pass validation today, ignoring stay length.
func (v *Validator) Usable(c *models.Coupon) bool {
	return v.check(c, 0) == ""
}
