package models

import "time"

// User represents a user row in the users table.
// Password holds the bcrypt hash; it is never returned in JSON responses.
type User struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewUser is the record written by a signup. The plaintext password is not
// part of it, only the derived hash.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
}
