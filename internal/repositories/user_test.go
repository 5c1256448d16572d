package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)

	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestUserReadRepository_GetByUsername_Mock(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	repo := NewUserReadRepository(db)
	ctx := context.Background()

	t.Run("row found", func(t *testing.T) {
		now := time.Now()
		rows := sqlmock.NewRows([]string{"id", "username", "password", "android_id", "created_at", "updated_at"}).
			AddRow(int64(1), "alice", "secret1", "device-aaa", now, now)

		mock.ExpectQuery("SELECT id, username, password, android_id").
			WithArgs("alice").
			WillReturnRows(rows)

		user, err := repo.GetByUsername(ctx, "alice")
		assert.NoError(t, err)
		assert.NotNil(t, user)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "device-aaa", user.AndroidID)
	})

	t.Run("no row is not an error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username, password, android_id").
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetByUsername(ctx, "ghost")
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserWriteRepository_Save_Mock(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	repo := NewUserWriteRepository(db)
	ctx := context.Background()

	t.Run("insert returns the new id", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("alice", "secret1", "device-aaa").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

		id, err := repo.Save(ctx, "alice", "secret1", "device-aaa")
		assert.NoError(t, err)
		assert.Equal(t, int64(42), id)
	})

	t.Run("unique violation maps to ErrDuplicateUsername", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("alice", "secret2", "device-bbb").
			WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

		id, err := repo.Save(ctx, "alice", "secret2", "device-bbb")
		assert.ErrorIs(t, err, ErrDuplicateUsername)
		assert.Zero(t, id)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("bob", "secret1", "").
			WillReturnError(sql.ErrConnDone)

		_, err := repo.Save(ctx, "bob", "secret1", "")
		assert.ErrorIs(t, err, sql.ErrConnDone)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
