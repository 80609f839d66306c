package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"auth-demo/models"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

var (
	ErrDuplicateEmail = errors.New("database: email already registered")
	ErrNotFound       = errors.New("database: user not found")
)

const userColumns = "id, name, email, password, created_at, updated_at"

// UserStore reads and writes the users table.
type UserStore struct {
	db        *sqlx.DB
	returning bool
	now       func() time.Time
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{
		db: db,
		// MySQL has no INSERT ... RETURNING
		returning: db.DriverName() != "mysql",
		now:       time.Now,
	}
}

// InsertUser writes one user and returns the rows the database reports as
// created. A unique violation on email is reported as ErrDuplicateEmail.
func (s *UserStore) InsertUser(ctx context.Context, u models.NewUser) ([]models.User, error) {
	now := s.now().UTC()
	args := []interface{}{u.Name, u.Email, u.PasswordHash, now, now}
	insert := "INSERT INTO users (name, email, password, created_at, updated_at) VALUES (?, ?, ?, ?, ?)"

	var ids []int
	if s.returning {
		if err := s.db.SelectContext(ctx, &ids, s.db.Rebind(insert+" RETURNING id"), args...); err != nil {
			return nil, insertError(err)
		}
	} else {
		result, err := s.db.ExecContext(ctx, s.db.Rebind(insert), args...)
		if err != nil {
			return nil, insertError(err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("read inserted id: %w", err)
		}
		if affected, err := result.RowsAffected(); err == nil && affected > 0 {
			ids = append(ids, int(id))
		}
	}

	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, models.User{
			ID:        id,
			Name:      u.Name,
			Email:     u.Email,
			Password:  u.PasswordHash,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return users, nil
}

// GetUser returns the user with id or ErrNotFound.
func (s *UserStore) GetUser(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	query := s.db.Rebind("SELECT " + userColumns + " FROM users WHERE id = ?")
	if err := s.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func insertError(err error) error {
	if isDuplicate(err) {
		return fmt.Errorf("insert user: %w", ErrDuplicateEmail)
	}
	return fmt.Errorf("insert user: %w", err)
}

func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	// both sqlite drivers report "UNIQUE constraint failed: users.email"
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
