// Package google implements the Google OAuth2 provider.
package google

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/tidasone/internal/http/providers"
	"github.com/dropDatabas3/tidasone/internal/identity"
)

const ProviderName = "google"

const (
	AuthURL    = "https://accounts.google.com/o/oauth2/auth"
	TokenURL   = "https://oauth2.googleapis.com/token"
	ProfileURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

// Profile is the OIDC userinfo payload.
type Profile struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (p Profile) Identity() identity.Identity {
	return identity.Identity{Email: p.Email, Name: p.Name, Subject: p.Sub}
}

// Decode parses a userinfo response body.
func Decode(body []byte) (providers.Profile, error) {
	var p Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// Factory creates the Google provider, filling default endpoints.
func Factory(cfg providers.Config, client *http.Client) (providers.Provider, error) {
	if cfg.AuthURL == "" {
		cfg.AuthURL = AuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = TokenURL
	}
	if cfg.ProfileURL == "" {
		cfg.ProfileURL = ProfileURL
	}
	return providers.NewOAuth2(cfg, client, Decode)
}
