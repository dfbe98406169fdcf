package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/database"
)

// ErrEmailTaken is returned when registering an address that already has an account.
var ErrEmailTaken = errors.New("email already registered")

const userColumns = `id, email, password_hash, full_name, COALESCE(phone, ''), role, created_at, updated_at`

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.Phone, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by email, compared case-insensitively.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, normalizeEmail(email)))
}

// List returns all users for the admin dashboard.
func (r *Repository) List(ctx context.Context) ([]models.UserPublic, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY full_name, email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.UserPublic
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, u.ToPublic())
	}
	return list, rows.Err()
}

// CreateUserParams holds the fields of a new account.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	FullName     string
	Phone        string
	Role         models.Role
}

// Create inserts a new user. Returns ErrEmailTaken for a duplicate address.
func (r *Repository) Create(ctx context.Context, p CreateUserParams) (*models.User, error) {
	const q = `INSERT INTO users (email, password_hash, full_name, phone, role)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		RETURNING ` + userColumns
	u, err := scanUser(r.pool.QueryRow(ctx, q, normalizeEmail(p.Email), p.PasswordHash, p.FullName, p.Phone, string(p.Role)))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// Contact returns the e-mail and name notifications for a user are sent to.
func (r *Repository) Contact(ctx context.Context, id uuid.UUID) (email, name string, err error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	return u.Email, u.FullName, nil
}

// ListAdminEmails returns the addresses of all administrators.
func (r *Repository) ListAdminEmails(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT email FROM users WHERE role = 'admin' ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
