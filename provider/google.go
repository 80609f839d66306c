// Package provider talks to the external OAuth identity provider.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

var (
	ErrExchange = errors.New("provider: code exchange failed")
	ErrProfile  = errors.New("provider: profile lookup failed")
)

// Profile is the identity returned by the provider.
type Profile struct {
	Subject string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// Google signs users in with Google's OpenID Connect endpoints.
type Google struct {
	oauth       *oauth2.Config
	userInfoURL string
}

func NewGoogle(cfg Config) *Google {
	return newGoogle(cfg, google.Endpoint, googleUserInfoURL)
}

func newGoogle(cfg Config, endpoint oauth2.Endpoint, userInfoURL string) *Google {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}
	return &Google{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		userInfoURL: userInfoURL,
	}
}

func (g *Google) Name() string { return "google" }

// AuthCodeURL is the consent page URL for state, bound to verifier with PKCE S256.
func (g *Google) AuthCodeURL(state, verifier string) string {
	return g.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades an authorization code for a token and loads the profile.
func (g *Google) Exchange(ctx context.Context, code, verifier string) (Profile, error) {
	token, err := g.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrExchange, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrProfile, err)
	}
	resp, err := g.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrProfile, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("%w: userinfo status %d", ErrProfile, resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return Profile{}, fmt.Errorf("%w: decode userinfo: %v", ErrProfile, err)
	}
	if profile.Subject == "" {
		return Profile{}, fmt.Errorf("%w: userinfo without subject", ErrProfile)
	}
	return profile, nil
}
