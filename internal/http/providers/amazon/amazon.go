// Package amazon implements the Login with Amazon provider.
package amazon

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/tidasone/internal/http/providers"
	"github.com/dropDatabas3/tidasone/internal/identity"
)

const ProviderName = "amazon"

const (
	AuthURL    = "https://www.amazon.com/ap/oa"
	TokenURL   = "https://api.amazon.com/auth/o2/token"
	ProfileURL = "https://api.amazon.com/user/profile"
)

// Profile is the /user/profile payload. Amazon names its stable id user_id;
// sub is accepted too for OIDC-style responses.
type Profile struct {
	UserID string `json:"user_id"`
	Sub    string `json:"sub"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

func (p Profile) Identity() identity.Identity {
	sub := p.Sub
	if sub == "" {
		sub = p.UserID
	}
	return identity.Identity{Email: p.Email, Name: p.Name, Subject: sub}
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
