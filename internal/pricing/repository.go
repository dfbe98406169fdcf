package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/database"
)

// ErrNoProperty is returned until an admin has configured the villa.
var ErrNoProperty = fmt.Errorf("%w: no property configured", apperr.ErrNotFound)

const propertyColumns = `id, name, currency, weekday_rate, weekend_rate, weekend_days, adult_supplement, child_supplement,
	cleaning_fee, vat_bps, min_nights, max_nights, max_occupancy, created_at, updated_at`

// Repository handles properties, seasons and custom_pricing persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a pricing repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanProperty(row pgx.Row) (*models.Property, error) {
	var p models.Property
	var weekend []int16
	err := row.Scan(&p.ID, &p.Name, &p.Currency, &p.WeekdayRate, &p.WeekendRate, &weekend, &p.AdultSupplement,
		&p.ChildSupplement, &p.CleaningFee, &p.VATBps, &p.MinNights, &p.MaxNights, &p.MaxOccupancy, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoProperty
	}
	if err != nil {
		return nil, err
	}
	p.WeekendDays = make([]time.Weekday, 0, len(weekend))
	for _, d := range weekend {
		p.WeekendDays = append(p.WeekendDays, time.Weekday(d))
	}
	return &p, nil
}

// GetProperty returns the villa.
func (r *Repository) GetProperty(ctx context.Context) (*models.Property, error) {
	return scanProperty(r.pool.QueryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE singleton`))
}

// PropertyID returns the villa's id.
func (r *Repository) PropertyID(ctx context.Context) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM properties WHERE singleton`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrNoProperty
	}
	return id, err
}

// SaveProperty creates the villa on first call and updates it afterwards.
func (r *Repository) SaveProperty(ctx context.Context, p *models.Property) error {
	const q = `INSERT INTO properties (name, currency, weekday_rate, weekend_rate, weekend_days, adult_supplement,
			child_supplement, cleaning_fee, vat_bps, min_nights, max_nights, max_occupancy)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (singleton) DO UPDATE SET
			name = EXCLUDED.name, currency = EXCLUDED.currency, weekday_rate = EXCLUDED.weekday_rate,
			weekend_rate = EXCLUDED.weekend_rate, weekend_days = EXCLUDED.weekend_days,
			adult_supplement = EXCLUDED.adult_supplement, child_supplement = EXCLUDED.child_supplement,
			cleaning_fee = EXCLUDED.cleaning_fee, vat_bps = EXCLUDED.vat_bps, min_nights = EXCLUDED.min_nights,
			max_nights = EXCLUDED.max_nights, max_occupancy = EXCLUDED.max_occupancy, updated_at = NOW()
		RETURNING id, created_at, updated_at`
	weekend := make([]int16, 0, len(p.WeekendDays))
	for _, d := range p.WeekendDays {
		weekend = append(weekend, int16(d))
	}
	return r.pool.QueryRow(ctx, q, p.Name, p.Currency, p.WeekdayRate, p.WeekendRate, weekend, p.AdultSupplement,
		p.ChildSupplement, p.CleaningFee, p.VATBps, p.MinNights, p.MaxNights, p.MaxOccupancy).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

const seasonColumns = `id, property_id, name, start_date, end_date, nightly_rate, created_at, updated_at`

func querySeasons(ctx context.Context, db database.DBTX, q string, args ...any) ([]*models.Season, error) {
	rows, err := db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Season
	for rows.Next() {
		var s models.Season
		if err := rows.Scan(&s.ID, &s.PropertyID, &s.Name, &s.StartDate, &s.EndDate, &s.NightlyRate, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// ListSeasons returns every season of the property ordered by start date.
func (r *Repository) ListSeasons(ctx context.Context, propertyID uuid.UUID) ([]*models.Season, error) {
	return querySeasons(ctx, r.pool, `SELECT `+seasonColumns+` FROM seasons WHERE property_id = $1 ORDER BY start_date, created_at`, propertyID)
}

// SeasonsOverlapping returns seasons sharing a day with the inclusive window [from, to].
func (r *Repository) SeasonsOverlapping(ctx context.Context, propertyID uuid.UUID, from, to time.Time) ([]*models.Season, error) {
	return querySeasons(ctx, r.pool, `SELECT `+seasonColumns+` FROM seasons
		WHERE property_id = $1 AND start_date <= $3 AND end_date >= $2
		ORDER BY start_date, created_at`, propertyID, from, to)
}

// SaveSeason inserts s (zero ID) or updates it. The seasons table is locked for the duration so that
// the overlap check and the write see the same rows; an overlap returns *OverlapError.
func (r *Repository) SaveSeason(ctx context.Context, s *models.Season) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(context.Background()) //nolint:errcheck

	if _, err := tx.Exec(ctx, `LOCK TABLE seasons IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("lock seasons: %w", err)
	}
	existing, err := querySeasons(ctx, tx, `SELECT `+seasonColumns+` FROM seasons
		WHERE property_id = $1 AND start_date <= $3 AND end_date >= $2`, s.PropertyID, s.StartDate, s.EndDate)
	if err != nil {
		return err
	}
	if other := FindOverlap(existing, s); other != nil {
		return &OverlapError{With: other}
	}

	if s.ID == uuid.Nil {
		err = tx.QueryRow(ctx, `INSERT INTO seasons (property_id, name, start_date, end_date, nightly_rate)
			VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`,
			s.PropertyID, s.Name, s.StartDate, s.EndDate, s.NightlyRate).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	} else {
		err = tx.QueryRow(ctx, `UPDATE seasons SET name = $2, start_date = $3, end_date = $4, nightly_rate = $5, updated_at = NOW()
			WHERE id = $1 AND property_id = $6 RETURNING created_at, updated_at`,
			s.ID, s.Name, s.StartDate, s.EndDate, s.NightlyRate, s.PropertyID).Scan(&s.CreatedAt, &s.UpdatedAt)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("save season: %w", err)
	}
	return tx.Commit(ctx)
}

// DeleteSeason removes a season.
func (r *Repository) DeleteSeason(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM seasons WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

const customColumns = `id, property_id, date, nightly_rate, adult_supplement, child_supplement, COALESCE(note, ''), created_at, updated_at`

// CustomPricing returns per-date overrides for nights in [from, to).
func (r *Repository) CustomPricing(ctx context.Context, propertyID uuid.UUID, from, to time.Time) ([]*models.CustomPricingEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+customColumns+` FROM custom_pricing
		WHERE property_id = $1 AND date >= $2 AND date < $3 ORDER BY date`, propertyID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.CustomPricingEntry
	for rows.Next() {
		var e models.CustomPricingEntry
		if err := rows.Scan(&e.ID, &e.PropertyID, &e.Date, &e.NightlyRate, &e.AdultSupplement, &e.ChildSupplement,
			&e.Note, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

// UpsertCustomPricing sets the override for e.Date, replacing any existing one.
func (r *Repository) UpsertCustomPricing(ctx context.Context, e *models.CustomPricingEntry) error {
	const q = `INSERT INTO custom_pricing (property_id, date, nightly_rate, adult_supplement, child_supplement, note)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		ON CONFLICT (property_id, date) DO UPDATE SET
			nightly_rate = EXCLUDED.nightly_rate, adult_supplement = EXCLUDED.adult_supplement,
			child_supplement = EXCLUDED.child_supplement, note = EXCLUDED.note, updated_at = NOW()
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, e.PropertyID, e.Date, e.NightlyRate, e.AdultSupplement, e.ChildSupplement, e.Note).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// DeleteCustomPricing removes the override for a date.
func (r *Repository) DeleteCustomPricing(ctx context.Context, propertyID uuid.UUID, date time.Time) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM custom_pricing WHERE property_id = $1 AND date = $2`, propertyID, date)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
