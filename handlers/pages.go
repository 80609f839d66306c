package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"auth-demo/session"

	"go.uber.org/zap"
)

// PageHandler renders the login and home pages.
type PageHandler struct {
	sessions *session.Manager
}

func NewPageHandler(sessions *session.Manager) *PageHandler {
	return &PageHandler{sessions: sessions}
}

type loginPage struct {
	Error string
}

type homePage struct {
	Session       *session.Session
	SessionJSON   string
	ProviderLabel string
}

// loginErrorMessage turns the ?error= code into text for the login page.
func loginErrorMessage(code string) string {
	if code == "Callback" {
		return "Sign in failed. Please try again."
	}
	return code
}

// Login handles GET /login
func (h *PageHandler) Login(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	renderPage(ctx, w, http.StatusOK, "login", loginPage{
		Error: loginErrorMessage(r.URL.Query().Get("error")),
	})
}

// Home handles GET / - profile for signed-in visitors, a sign-in prompt otherwise
func (h *PageHandler) Home(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Read(r)
	if err != nil {
		renderPage(ctx, w, http.StatusOK, "home", homePage{})
		return
	}

	sessionJSON, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		logRequest(ctx, "error", "Failed to encode session", zap.Error(err))
	}
	renderPage(ctx, w, http.StatusOK, "home", homePage{
		Session:       &sess,
		SessionJSON:   string(sessionJSON),
		ProviderLabel: providerLabel(sess.Provider),
	})
}

func providerLabel(provider string) string {
	switch provider {
	case "google":
		return "Google"
	case "":
		return "Unknown"
	}
	return provider
}
