package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const stateKeyPrefix = "oauth_state:"

var ErrInvalidState = errors.New("session: unknown or expired oauth state")

// KV is the cache surface the state store needs. Take must return and
// remove a value atomically.
type KV interface {
	Set(key string, value interface{}, ttl time.Duration) error
	Take(key string) (interface{}, error)
}

// PendingSignIn is remembered between the redirect to the provider and the callback.
type PendingSignIn struct {
	Verifier    string `json:"verifier"`
	CallbackURL string `json:"callback_url"`
}

// StateStore keeps one-time OAuth state values in the cache.
type StateStore struct {
	kv  KV
	ttl time.Duration
}

func NewStateStore(kv KV, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateStore{kv: kv, ttl: ttl}
}

// Begin creates a state value and PKCE verifier for a new sign-in.
func (s *StateStore) Begin(callbackURL string) (string, PendingSignIn, error) {
	state := uuid.NewString()
	pending := PendingSignIn{
		Verifier:    oauth2.GenerateVerifier(),
		CallbackURL: callbackURL,
	}

	data, err := json.Marshal(pending)
	if err != nil {
		return "", PendingSignIn{}, fmt.Errorf("encode oauth state: %w", err)
	}
	if err := s.kv.Set(stateKeyPrefix+state, string(data), s.ttl); err != nil {
		return "", PendingSignIn{}, fmt.Errorf("store oauth state: %w", err)
	}
	return state, pending, nil
}

// Consume returns the pending sign-in for state and forgets it.
func (s *StateStore) Consume(state string) (PendingSignIn, error) {
	if state == "" {
		return PendingSignIn{}, ErrInvalidState
	}

	raw, err := s.kv.Take(stateKeyPrefix + state)
	if err != nil {
		return PendingSignIn{}, fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	if raw == nil {
		return PendingSignIn{}, ErrInvalidState
	}

	var pending PendingSignIn
	switch v := raw.(type) {
	case string:
		err = json.Unmarshal([]byte(v), &pending)
	case []byte:
		err = json.Unmarshal(v, &pending)
	case map[string]interface{}:
		pending.Verifier, _ = v["verifier"].(string)
		pending.CallbackURL, _ = v["callback_url"].(string)
	default:
		return PendingSignIn{}, fmt.Errorf("%w: unexpected cached type %T", ErrInvalidState, raw)
	}
	if err != nil || pending.Verifier == "" {
		return PendingSignIn{}, ErrInvalidState
	}
	return pending, nil
}
