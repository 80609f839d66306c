package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auth-demo/config"
	"auth-demo/ratelimit"

	"github.com/stretchr/testify/require"
)

func TestAuthChecker(t *testing.T) {
	check := newAuthChecker("admin-token")

	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"Bearer admin-token", true},
		{"Bearer wrong", false},
		{"Basic admin-token", false},
		{"Bearer ", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/users/1", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		ok, auth := check(req)
		require.Equal(t, tt.want, ok, "header %q", tt.header)
		if ok {
			require.Equal(t, "admin", auth.Client)
		}
	}
}

func TestAuthCheckerWithoutToken(t *testing.T) {
	check := newAuthChecker("")
	req := httptest.NewRequest(http.MethodGet, "/users/1", nil)
	req.Header.Set("Authorization", "Bearer ")
	ok, _ := check(req)
	require.False(t, ok)
}

func TestInstrumentKeepsStatus(t *testing.T) {
	h := instrument("Test", func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	h(context.Background(), rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
}

func TestNewSignupLimiter(t *testing.T) {
	require.Nil(t, newSignupLimiter(config.RateLimitConfig{Enabled: false}, nil))

	limiter := newSignupLimiter(config.RateLimitConfig{Enabled: true, Backend: "memory", Requests: 5, Window: time.Minute}, nil)
	_, ok := limiter.(*ratelimit.MemoryLimiter)
	require.True(t, ok)

	limiter = newSignupLimiter(config.RateLimitConfig{Enabled: true, Backend: "redis", Requests: 5, Window: time.Minute}, nil)
	_, ok = limiter.(*ratelimit.MemoryLimiter)
	require.True(t, ok)

	client := newRedisClient(config.CacheConfig{RedisAddr: "localhost:6379"})
	defer client.Close()
	limiter = newSignupLimiter(config.RateLimitConfig{Enabled: true, Backend: "redis", Requests: 5, Window: time.Minute}, client)
	_, ok = limiter.(*ratelimit.RedisLimiter)
	require.True(t, ok)
}
