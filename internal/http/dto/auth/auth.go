package auth

// TokenResponse is the body of a successful GET /auth/callback/{provider}.
type TokenResponse struct {
	Token string `json:"token"`
}

// MeResponse is the response for GET /auth/me: the verified bearer claims.
type MeResponse struct {
	Sub      string `json:"sub"`
	Exp      int64  `json:"exp"`
	Provider string `json:"provider"`
}

// ProvidersResponse lists the enabled login providers.
type ProvidersResponse struct {
	Providers []string `json:"providers"`
}
