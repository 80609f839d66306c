package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{Secret: "test-secret", TTL: time.Hour, CookieName: "sid"})
	require.NoError(t, err)
	return m
}

func issueCookie(t *testing.T, m *Manager) (*http.Cookie, Session) {
	t.Helper()
	rec := httptest.NewRecorder()
	sess, err := m.Issue(rec, User{Name: "Ann", Email: "ann@example.com", Image: "https://img/ann.png"}, "google", "sub-123")
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0], sess
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager(Config{})
	require.Error(t, err)
}

func TestIssueAndRead(t *testing.T) {
	m := newTestManager(t)
	fixed := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	cookie, issued := issueCookie(t, m)
	require.Equal(t, "sid", cookie.Name)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	require.Equal(t, fixed.Add(time.Hour), issued.Expires)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	got, err := m.Read(req)
	require.NoError(t, err)
	require.Equal(t, issued, got)
	require.Equal(t, "Ann", got.User.Name)
	require.Equal(t, "google", got.Provider)
	require.Equal(t, "sub-123", got.Subject)
}

func TestReadWithoutCookie(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Read(httptest.NewRequest(http.MethodGet, "/", nil))
	require.ErrorIs(t, err, ErrNoSession)
}

func TestReadRejectsExpiredSession(t *testing.T) {
	m := newTestManager(t)
	cookie, _ := issueCookie(t, m)
	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	_, err := m.Read(req)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestReadRejectsForeignSignature(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager(Config{Secret: "another-secret", TTL: time.Hour, CookieName: "sid"})
	require.NoError(t, err)
	cookie, _ := issueCookie(t, other)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	_, err = m.Read(req)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestClearExpiresCookie(t *testing.T) {
	m := newTestManager(t)
	rec := httptest.NewRecorder()
	m.Clear(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "sid", cookies[0].Name)
	require.Empty(t, cookies[0].Value)
	require.Less(t, cookies[0].MaxAge, 0)
}
