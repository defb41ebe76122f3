// Package providers defines the social login providers.
//
// Architecture:
// - Provider interface: what the token exchange service needs from an IdP
// - Builder/Registry: factories registered at startup, frozen into a read-only Registry
// - One sub-package per provider with its endpoints and profile decoder
package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/tidasone/internal/identity"
)

// UserAgent is sent on every profile request. GitHub rejects requests without one.
const UserAgent = "TIDasONE-App"

// LoginScopes are requested from every provider regardless of its configuration.
var LoginScopes = []string{"openid", "email", "profile"}

var (
	// ErrExchange: the authorization code could not be traded for an access token.
	ErrExchange = errors.New("provider: code exchange failed")
	// ErrProfile: the profile endpoint was unreachable or answered non-2xx.
	ErrProfile = errors.New("provider: profile request failed")
	// ErrProfileDecode: the profile body is not the expected JSON shape.
	ErrProfileDecode = errors.New("provider: profile decode failed")
)

// StatusError carries the upstream HTTP status of a failed profile request.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider: profile endpoint returned status %d", e.Status)
}

func (e *StatusError) Unwrap() error { return ErrProfile }

// Provider is one configured identity provider.
type Provider interface {
	// Name is the path segment used in /auth/login/{provider}.
	Name() string

	// AuthorizeURL builds the redirect target for the login step.
	AuthorizeURL(state string) string

	// Exchange trades an authorization code for an access token.
	Exchange(ctx context.Context, code string) (*TokenSet, error)

	// UserInfo fetches and decodes the user profile.
	UserInfo(ctx context.Context, accessToken string) (Profile, error)
}

// Config holds one provider's endpoints and credentials.
type Config struct {
	Name         string
	AuthURL      string
	TokenURL     string
	ProfileURL   string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// TokenSet contains tokens received from the provider.
type TokenSet struct {
	AccessToken string
	TokenType   string
}

// Profile is a decoded provider payload. Each provider sub-package defines
// its own variant.
type Profile interface {
	Identity() identity.Identity
}

// Decoder turns a profile response body into a Profile.
type Decoder func(body []byte) (Profile, error)
