package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tuanvn/tourbook/internal/database"
	"github.com/tuanvn/tourbook/internal/models"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const userColumns = `id, full_name, email, phone, password_hash, role, remember_token, remember_token_expiry, created_at, updated_at`

// scanUserRow handles nullable fields and populates a User model from a database row
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var phone *string

	err := scanner.Scan(
		&user.ID, &user.FullName, &user.Email, &phone,
		&user.PasswordHash, &user.Role,
		&user.RememberToken, &user.RememberTokenExpiry,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if phone != nil {
		user.Phone = *phone
	}

	return &user, nil
}

func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

// GetByRememberToken resolves a user from an unexpired remember-me token.
func (r *UserRepository) GetByRememberToken(ctx context.Context, token string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + ` FROM users
		WHERE remember_token = $1 AND remember_token_expiry > CURRENT_TIMESTAMP
	`
	return scanUserRow(r.pool.QueryRow(ctx, query, token))
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = models.RoleUser
	}

	query := `
		INSERT INTO users (full_name, email, phone, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns

	var phone *string
	if user.Phone != "" {
		phone = &user.Phone
	}

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.FullName, user.Email, phone, user.PasswordHash, user.Role,
		user.CreatedAt, user.UpdatedAt,
	))
}

func (r *UserRepository) Update(ctx context.Context, id int64, user *models.User) (*models.User, error) {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users SET full_name = $1, phone = $2, role = $3, updated_at = $4
		WHERE id = $5
		RETURNING ` + userColumns

	var phone *string
	if user.Phone != "" {
		phone = &user.Phone
	}

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.FullName, phone, user.Role, user.UpdatedAt, id,
	))
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`

	result, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateRememberToken stores a remember-me token with its expiry.
func (r *UserRepository) UpdateRememberToken(ctx context.Context, id int64, token string, expiry time.Time) error {
	query := `UPDATE users SET remember_token = $1, remember_token_expiry = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`

	result, err := r.pool.Exec(ctx, query, token, expiry, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ClearRememberToken removes the remember-me token on logout.
func (r *UserRepository) ClearRememberToken(ctx context.Context, id int64) error {
	query := `UPDATE users SET remember_token = NULL, remember_token_expiry = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = $1`

	_, err := r.pool.Exec(ctx, query, id)
	return database.MapPostgresError(err)
}

// ClearExpiredRememberTokens removes remember tokens past their expiry and
// returns how many rows were affected.
func (r *UserRepository) ClearExpiredRememberTokens(ctx context.Context) (int64, error) {
	query := `
		UPDATE users SET remember_token = NULL, remember_token_expiry = NULL
		WHERE remember_token IS NOT NULL AND remember_token_expiry <= CURRENT_TIMESTAMP
	`

	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	return scanUserRows(rows)
}

// Filter lists users matching an optional role and an optional keyword
// against name or email.
func (r *UserRepository) Filter(ctx context.Context, role, keyword string) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + ` FROM users
		WHERE ($1 = '' OR role = $1)
		  AND ($2 = '' OR full_name ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, role, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to filter users: %w", err)
	}

	return scanUserRows(rows)
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&count)
	return count, err
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
