// Package github implements the GitHub OAuth2 provider.
// GitHub has no ID token; the profile comes from the REST user endpoint.
package github

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/tidasone/internal/http/providers"
	"github.com/dropDatabas3/tidasone/internal/identity"
)

const ProviderName = "github"

const (
	AuthURL    = "https://github.com/login/oauth/authorize"
	TokenURL   = "https://github.com/login/oauth/access_token"
	ProfileURL = "https://api.github.com/user"
)

// Profile is the subset of GET /user we use. Email is null for users
// with a private address.
type Profile struct {
	ID    *uint64 `json:"id"`
	Login string  `json:"login"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
}

func (p Profile) Identity() identity.Identity {
	return identity.Identity{Email: p.Email, Login: p.Login, Name: p.Name, NumericID: p.ID}
}

func Decode(body []byte) (providers.Profile, error) {
	var p Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	return p, nil
}

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
