package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"auth-demo/models"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/umakantv/go-utils/logger"
	_ "modernc.org/sqlite"
)

func TestMain(m *testing.M) {
	logger.Init(logger.LoggerConfig{
		CallerKey:  "file",
		TimeKey:    "timestamp",
		CallerSkip: 1,
	})
	os.Exit(m.Run())
}

func newTestStore(t *testing.T) *UserStore {
	t.Helper()
	dbConn, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbConn.Close() })

	require.NoError(t, Migrate(context.Background(), dbConn, "sqlite3"))
	return NewUserStore(dbConn)
}

func TestInsertUserReturnsCreatedRow(t *testing.T) {
	store := newTestStore(t)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	rows, err := store.InsertUser(context.Background(), models.NewUser{
		Name:         "Ann",
		Email:        "ann@example.com",
		PasswordHash: "$2a$10$hash",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotZero(t, rows[0].ID)
	require.Equal(t, "Ann", rows[0].Name)
	require.Equal(t, "ann@example.com", rows[0].Email)
	require.Equal(t, "$2a$10$hash", rows[0].Password)
	require.Equal(t, fixed, rows[0].CreatedAt)

	got, err := store.GetUser(context.Background(), rows[0].ID)
	require.NoError(t, err)
	require.Equal(t, rows[0].ID, got.ID)
	require.Equal(t, "Ann", got.Name)
	require.Equal(t, "$2a$10$hash", got.Password)
}

func TestInsertUserDuplicateEmail(t *testing.T) {
	store := newTestStore(t)
	u := models.NewUser{Name: "Ann", Email: "ann@example.com", PasswordHash: "h"}

	_, err := store.InsertUser(context.Background(), u)
	require.NoError(t, err)

	_, err = store.InsertUser(context.Background(), u)
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestGetUserNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetUser(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestIsDuplicate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"postgres unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"postgres other", &pgconn.PgError{Code: "23503"}, false},
		{"mysql duplicate entry", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true},
		{"mysql other", &mysql.MySQLError{Number: 1452}, false},
		{"sqlite unique", errors.New("UNIQUE constraint failed: users.email"), true},
		{"unrelated", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, isDuplicate(tt.err))
		})
	}
}

func TestDriverName(t *testing.T) {
	require.Equal(t, "pgx", driverName("postgres"))
	require.Equal(t, "mysql", driverName("mysql"))
	require.Equal(t, "sqlite3", driverName("sqlite3"))
}
