package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/andripurnama/mobile-auth-api/internal/logger"
	"github.com/andripurnama/mobile-auth-api/internal/models"
)

// ErrDuplicateUsername is returned by Save when the username unique
// constraint rejects the insert.
var ErrDuplicateUsername = errors.New("duplicate username")

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

type UserReadRepository struct {
	db *sqlx.DB
}

func NewUserReadRepository(db *sqlx.DB) *UserReadRepository {
	return &UserReadRepository{db: db}
}

// GetByUsername returns the user row for the exact username,
// or (nil, nil) when no such row exists.
func (r *UserReadRepository) GetByUsername(ctx context.Context, username string) (*models.UserDB, error) {
	const query = `
		SELECT id, username, password, android_id, created_at, updated_at
		FROM users
		WHERE username = $1
		LIMIT 1
	`

	var user models.UserDB
	err := r.db.GetContext(ctx, &user, query, username)

	// Log with query in single line
	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{username},
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// CountAll returns the total number of user rows.
func (r *UserReadRepository) CountAll(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) AS total FROM users`

	var total int64
	err := r.db.GetContext(ctx, &total, query)

	logger.Log.Infow(
		"query", query,
		"result", total,
		"error", err,
	)

	if err != nil {
		return 0, err
	}

	return total, nil
}

// ListNewestFirst returns all user rows ordered by creation time,
// newest first.
func (r *UserReadRepository) ListNewestFirst(ctx context.Context) ([]models.UserDB, error) {
	const query = `
		SELECT id, username, password, android_id, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
	`

	var users []models.UserDB
	err := r.db.SelectContext(ctx, &users, query)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"result", len(users),
		"error", err,
	)

	if err != nil {
		return nil, err
	}

	return users, nil
}

type UserWriteRepository struct {
	db *sqlx.DB
}

func NewUserWriteRepository(db *sqlx.DB) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

// Save inserts a new user row and returns the assigned id.
// A plain INSERT is used so that two concurrent registrations with the
// same username are resolved by the unique constraint: exactly one insert
// succeeds, the other returns ErrDuplicateUsername.
func (r *UserWriteRepository) Save(ctx context.Context, username, password, androidID string) (int64, error) {
	const query = `
		INSERT INTO users (username, password, android_id, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id
	`
	args := []any{username, password, androidID}

	var id int64
	err := r.db.GetContext(ctx, &id, query, args...)

	// Log with query in single line
	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{username, androidID},
		"result", id,
		"error", err,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return 0, ErrDuplicateUsername
	}
	if err != nil {
		return 0, err
	}

	return id, nil
}
