package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/oauth2"
)

// maxProfileBytes bounds how much of a profile response is read.
const maxProfileBytes = 1 << 20

// OAuth2 is the authorization-code provider shared by all sub-packages.
// Providers differ only in endpoints and profile decoding.
type OAuth2 struct {
	name       string
	conf       *oauth2.Config
	profileURL string
	decode     Decoder
	http       *http.Client
}

// NewOAuth2 validates cfg and builds a provider around x/oauth2.
func NewOAuth2(cfg Config, client *http.Client, decode Decoder) (*OAuth2, error) {
	var missing []string
	for k, v := range map[string]string{
		"client_id":    cfg.ClientID,
		"auth_url":     cfg.AuthURL,
		"token_url":    cfg.TokenURL,
		"profile_url":  cfg.ProfileURL,
		"redirect_url": cfg.RedirectURL,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	if decode == nil {
		return nil, errors.New("nil profile decoder")
	}
	return &OAuth2{
		name: cfg.Name,
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		profileURL: cfg.ProfileURL,
		decode:     decode,
		http:       client,
	}, nil
}

func (p *OAuth2) Name() string { return p.name }

func (p *OAuth2) AuthorizeURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

func (p *OAuth2) Exchange(ctx context.Context, code string) (*TokenSet, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.http)
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access_token", ErrExchange)
	}
	return &TokenSet{AccessToken: tok.AccessToken, TokenType: tok.TokenType}, nil
}

func (p *OAuth2) UserInfo(ctx context.Context, accessToken string) (Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfile, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfile, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxProfileBytes))
		return nil, &StatusError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrProfile, err)
	}
	prof, err := p.decode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileDecode, err)
	}
	return prof, nil
}
