package repositories

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/andripurnama/mobile-auth-api/internal/logger"
)

// InitSchema creates the users table if it does not exist yet.
// It is idempotent and must run at least once before the first request
// touches the store.
func InitSchema(ctx context.Context, db *sqlx.DB) error {
	const query = `
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			android_id VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`

	_, err := db.ExecContext(ctx, query)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"error", err,
	)

	return err
}
