// Package signup turns a raw signup form into a stored user.
package signup

import (
	"context"
	"errors"
	"fmt"

	"auth-demo/models"
)

// MessageNotCreated is shown when the store accepted the insert but returned no row.
const MessageNotCreated = "An error occurred while creating your account."

var (
	ErrStore = errors.New("signup: user store failure")
	ErrHash  = errors.New("signup: password hashing failure")
)

// Store persists new users. A successful insert returns the created rows,
// which are expected to be empty or a single row.
type Store interface {
	InsertUser(ctx context.Context, u models.NewUser) ([]models.User, error)
}

type Outcome int

const (
	OutcomeCreated Outcome = iota + 1
	OutcomeInvalid
	OutcomeNotCreated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeNotCreated:
		return "not_created"
	}
	return "unknown"
}

// Result describes a signup that did not hit a hard failure.
type Result struct {
	Outcome Outcome
	Errors  FieldErrors
	Message string
	User    *models.User
}

// FormState is what the signup form shows after a submission.
type FormState struct {
	Errors  FieldErrors `json:"errors,omitempty"`
	Message string      `json:"message,omitempty"`
}

func (r Result) FormState() FormState {
	return FormState{Errors: r.Errors, Message: r.Message}
}

// Workflow validates, hashes and stores a signup.
type Workflow struct {
	validator *Validator
	hasher    Hasher
	store     Store
}

func NewWorkflow(v *Validator, h Hasher, s Store) *Workflow {
	return &Workflow{validator: v, hasher: h, store: s}
}

// Signup runs one signup attempt. Validation problems and an empty insert are
// reported in the Result; hashing and store failures are returned as errors
// wrapping ErrHash or ErrStore.
func (w *Workflow) Signup(ctx context.Context, in Input) (Result, error) {
	valid, fieldErrs := w.validator.Validate(in)
	if fieldErrs != nil {
		return Result{Outcome: OutcomeInvalid, Errors: fieldErrs}, nil
	}

	hash, err := w.hasher.Hash(valid.Password())
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrHash, err)
	}

	rows, err := w.store.InsertUser(ctx, models.NewUser{
		Name:         valid.Name(),
		Email:        valid.Email(),
		PasswordHash: hash,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrStore, err)
	}

	if len(rows) == 0 {
		return Result{Outcome: OutcomeNotCreated, Message: MessageNotCreated}, nil
	}

	user := rows[0]
	return Result{Outcome: OutcomeCreated, User: &user}, nil
}
