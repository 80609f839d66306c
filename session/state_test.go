package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryKV struct {
	values map[string]interface{}
	ttls   map[string]time.Duration
}

func newMemoryKV() *memoryKV {
	return &memoryKV{values: map[string]interface{}{}, ttls: map[string]time.Duration{}}
}

func (m *memoryKV) Set(key string, value interface{}, ttl time.Duration) error {
	m.values[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memoryKV) Take(key string) (interface{}, error) {
	v, ok := m.values[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	delete(m.values, key)
	return v, nil
}

var errBackend = errors.New("redis down")

type failingKV struct{}

func (failingKV) Set(string, interface{}, time.Duration) error { return errBackend }
func (failingKV) Take(string) (interface{}, error)             { return nil, errBackend }

func TestStateRoundTrip(t *testing.T) {
	kv := newMemoryKV()
	store := NewStateStore(kv, 5*time.Minute)

	state, pending, err := store.Begin("/dashboard")
	require.NoError(t, err)
	require.NotEmpty(t, state)
	require.NotEmpty(t, pending.Verifier)
	require.Equal(t, 5*time.Minute, kv.ttls["oauth_state:"+state])

	got, err := store.Consume(state)
	require.NoError(t, err)
	require.Equal(t, pending, got)
}

func TestStateIsSingleUse(t *testing.T) {
	store := NewStateStore(newMemoryKV(), time.Minute)
	state, _, err := store.Begin("/")
	require.NoError(t, err)

	_, err = store.Consume(state)
	require.NoError(t, err)
	_, err = store.Consume(state)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestConsumeUnknownState(t *testing.T) {
	store := NewStateStore(newMemoryKV(), time.Minute)

	_, err := store.Consume("")
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = store.Consume("never-issued")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestConsumeDecodedMap(t *testing.T) {
	kv := newMemoryKV()
	kv.values["oauth_state:abc"] = map[string]interface{}{"verifier": "v", "callback_url": "/x"}
	store := NewStateStore(kv, time.Minute)

	got, err := store.Consume("abc")
	require.NoError(t, err)
	require.Equal(t, PendingSignIn{Verifier: "v", CallbackURL: "/x"}, got)
}

func TestBeginFailsWhenStateIsNotStored(t *testing.T) {
	store := NewStateStore(failingKV{}, time.Minute)

	state, _, err := store.Begin("/")
	require.ErrorIs(t, err, errBackend)
	require.Empty(t, state)
}

func TestConsumeFailsWhenBackendFails(t *testing.T) {
	store := NewStateStore(failingKV{}, time.Minute)

	_, err := store.Consume("abc")
	require.ErrorIs(t, err, ErrInvalidState)
	require.ErrorIs(t, err, errBackend)
}
