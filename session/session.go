// Package session issues and reads the signed session cookie set after an
// OAuth sign-in.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrNoSession = errors.New("session: not signed in")

// User is the profile shown for a signed-in visitor.
type User struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Image string `json:"image,omitempty"`
}

// Session is the decoded session cookie.
type Session struct {
	User     User      `json:"user"`
	Expires  time.Time `json:"expires"`
	Provider string    `json:"-"`
	Subject  string    `json:"-"`
}

// Claims is the JWT payload stored in the cookie.
type Claims struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Picture  string `json:"picture,omitempty"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

type Config struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
	Issuer     string
}

// Manager signs session cookies with HS256.
type Manager struct {
	cfg Config
	now func() time.Time
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * 24 * time.Hour
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "auth_demo_session"
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "auth-demo"
	}
	return &Manager{cfg: cfg, now: time.Now}, nil
}

// Issue signs a session for user and sets it as a cookie on w.
func (m *Manager) Issue(w http.ResponseWriter, user User, provider, subject string) (Session, error) {
	now := m.now().UTC()
	expires := now.Add(m.cfg.TTL)
	claims := Claims{
		Name:     user.Name,
		Email:    user.Email,
		Picture:  user.Image,
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(m.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	return claims.session(), nil
}

// Read decodes the session cookie on r. A missing, tampered or expired
// cookie yields ErrNoSession.
func (m *Manager) Read(r *http.Request) (Session, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return Session{}, ErrNoSession
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(cookie.Value, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(m.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	return claims.session(), nil
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *Claims) session() Session {
	s := Session{
		User:     User{Name: c.Name, Email: c.Email, Image: c.Picture},
		Provider: c.Provider,
		Subject:  c.Subject,
	}
	if c.ExpiresAt != nil {
		s.Expires = c.ExpiresAt.Time.UTC()
	}
	return s
}
