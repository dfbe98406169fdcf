package coupons

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/database"
)

// ErrDuplicateCode is returned when a coupon code is already taken.
var ErrDuplicateCode = errors.New("coupon code already exists")

const couponColumns = `id, code, COALESCE(description, ''), percent_off, amount_off, valid_from, valid_to, min_nights, is_active, is_public, created_at, updated_at`

// Repository handles coupons persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a coupons repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanCoupon(row pgx.Row) (*models.Coupon, error) {
	var c models.Coupon
	err := row.Scan(&c.ID, &c.Code, &c.Description, &c.PercentOff, &c.AmountOff, &c.ValidFrom, &c.ValidTo,
		&c.MinNights, &c.IsActive, &c.IsPublic, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]*models.Coupon, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// GetByCode returns the coupon with the given upper-cased code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	return scanCoupon(r.pool.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE code = $1`, NormalizeCode(code)))
}

// GetByID returns a coupon by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	return scanCoupon(r.pool.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id))
}

// List returns every coupon, newest first.
func (r *Repository) List(ctx context.Context) ([]*models.Coupon, error) {
	return r.list(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC`)
}

// ListPublic returns active public coupons. Window filtering is left to the caller.
func (r *Repository) ListPublic(ctx context.Context) ([]*models.Coupon, error) {
	return r.list(ctx, `SELECT `+couponColumns+` FROM coupons WHERE is_active AND is_public ORDER BY code`)
}

// Create inserts c and fills its id and timestamps.
func (r *Repository) Create(ctx context.Context, c *models.Coupon) error {
	const q = `INSERT INTO coupons (code, description, percent_off, amount_off, valid_from, valid_to, min_nights, is_active, is_public)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, c.Code, c.Description, c.PercentOff, c.AmountOff, c.ValidFrom, c.ValidTo,
		c.MinNights, c.IsActive, c.IsPublic).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return ErrDuplicateCode
	}
	if err != nil {
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// Update overwrites every editable field of c.
func (r *Repository) Update(ctx context.Context, c *models.Coupon) error {
	const q = `UPDATE coupons SET code = $2, description = NULLIF($3, ''), percent_off = $4, amount_off = $5,
		valid_from = $6, valid_to = $7, min_nights = $8, is_active = $9, is_public = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, c.ID, c.Code, c.Description, c.PercentOff, c.AmountOff, c.ValidFrom, c.ValidTo,
		c.MinNights, c.IsActive, c.IsPublic).Scan(&c.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperr.ErrNotFound
	case database.IsUniqueViolation(err):
		return ErrDuplicateCode
	case err != nil:
		return fmt.Errorf("update coupon: %w", err)
	}
	return nil
}
