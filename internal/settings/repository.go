// Package settings stores the site-wide booking settings record.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/villastay/backend/internal/models"
)

// Repository reads and writes the single settings row.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a settings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns the stored settings, or models.DefaultSettings when none have been saved.
func (r *Repository) Get(ctx context.Context) (models.Settings, error) {
	var s models.Settings
	err := r.pool.QueryRow(ctx, `SELECT security_deposit_enabled, security_deposit_amount, updated_at FROM settings WHERE id`).
		Scan(&s.SecurityDepositEnabled, &s.SecurityDepositAmount, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}

// Update saves s, creating the row on first use.
func (r *Repository) Update(ctx context.Context, s models.Settings) (models.Settings, error) {
	const q = `INSERT INTO settings (id, security_deposit_enabled, security_deposit_amount, updated_at)
		VALUES (TRUE, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET
			security_deposit_enabled = EXCLUDED.security_deposit_enabled,
			security_deposit_amount = EXCLUDED.security_deposit_amount,
			updated_at = NOW()
		RETURNING updated_at`
	if err := r.pool.QueryRow(ctx, q, s.SecurityDepositEnabled, s.SecurityDepositAmount).Scan(&s.UpdatedAt); err != nil {
		return models.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return s, nil
}
