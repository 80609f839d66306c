package handlers

import (
	"context"
	"errors"
	"net/http"

	"auth-demo/monitoring"
	"auth-demo/provider"
	"auth-demo/session"

	"github.com/umakantv/go-utils/errs"
	"go.uber.org/zap"
)

const loginFailedURL = "/login?error=Callback"

// Provider is an OAuth identity provider the app can sign users in with.
type Provider interface {
	Name() string
	AuthCodeURL(state, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (provider.Profile, error)
}

// OAuthFlowHandler runs the OAuth sign-in flow and owns the session cookie.
type OAuthFlowHandler struct {
	provider Provider
	states   *session.StateStore
	sessions *session.Manager
}

// NewOAuthFlowHandler creates a new OAuth flow handler
func NewOAuthFlowHandler(p Provider, states *session.StateStore, sessions *session.Manager) *OAuthFlowHandler {
	return &OAuthFlowHandler{
		provider: p,
		states:   states,
		sessions: sessions,
	}
}

// SignIn handles GET /api/auth/signin/{provider} - redirects to the provider's consent page
func (h *OAuthFlowHandler) SignIn(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	callbackURL := safeCallbackURL(r.URL.Query().Get("callbackUrl"))

	state, pending, err := h.states.Begin(callbackURL)
	if err != nil {
		logRequest(ctx, "error", "Failed to start sign-in", zap.Error(err))
		monitoring.ObserveSignin(h.provider.Name(), "error")
		http.Redirect(w, r, loginFailedURL, http.StatusFound)
		return
	}

	logRequest(ctx, "info", "Redirecting to provider", zap.String("provider", h.provider.Name()))
	http.Redirect(w, r, h.provider.AuthCodeURL(state, pending.Verifier), http.StatusFound)
}

// Callback handles GET /api/auth/callback/{provider} - exchanges the code and sets the session cookie
func (h *OAuthFlowHandler) Callback(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := h.provider.Name()

	if providerErr := q.Get("error"); providerErr != "" {
		logRequest(ctx, "info", "Provider declined sign-in", zap.String("provider", name), zap.String("error", providerErr))
		h.fail(w, r, "denied")
		return
	}

	pending, err := h.states.Consume(q.Get("state"))
	if err != nil {
		logRequest(ctx, "error", "Invalid OAuth state", zap.String("provider", name), zap.Error(err))
		h.fail(w, r, "invalid_state")
		return
	}

	code := q.Get("code")
	if code == "" {
		logRequest(ctx, "error", "Callback without code", zap.String("provider", name))
		h.fail(w, r, "error")
		return
	}

	profile, err := h.provider.Exchange(ctx, code, pending.Verifier)
	if err != nil {
		logRequest(ctx, "error", "Code exchange failed", zap.String("provider", name), zap.Error(err))
		result := "error"
		if errors.Is(err, provider.ErrExchange) {
			result = "exchange_failed"
		}
		h.fail(w, r, result)
		return
	}

	user := session.User{Name: profile.Name, Email: profile.Email, Image: profile.Picture}
	if _, err := h.sessions.Issue(w, user, name, profile.Subject); err != nil {
		logRequest(ctx, "error", "Failed to issue session", zap.String("provider", name), zap.Error(err))
		h.fail(w, r, "error")
		return
	}

	monitoring.ObserveSignin(name, "success")
	logRequest(ctx, "info", "Sign-in complete", zap.String("provider", name))
	http.Redirect(w, r, safeCallbackURL(pending.CallbackURL), http.StatusFound)
}

func (h *OAuthFlowHandler) fail(w http.ResponseWriter, r *http.Request, result string) {
	monitoring.ObserveSignin(h.provider.Name(), result)
	http.Redirect(w, r, loginFailedURL, http.StatusFound)
}

// Session handles GET /api/auth/session - returns the current session or {}
func (h *OAuthFlowHandler) Session(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Read(r)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			logRequest(ctx, "error", "Failed to read session", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Session error"))
			return
		}
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// SignOut handles POST /api/auth/signout and /api/auth/logout - clears the session
func (h *OAuthFlowHandler) SignOut(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	logRequest(ctx, "info", "Signed out")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
