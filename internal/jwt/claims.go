package jwt

import (
	"errors"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenMissing: no se envió bearer token.
	ErrTokenMissing = errors.New("jwt: token missing")
	// ErrTokenInvalid: firma, algoritmo o formato inválido.
	ErrTokenInvalid = errors.New("jwt: token invalid")
	// ErrTokenExpired: exp ya pasó. Un token sin exp es ErrTokenInvalid.
	ErrTokenExpired = errors.New("jwt: token expired")
	// ErrClaimsInvalid: claims que no se pueden firmar (exp en el pasado, sub vacío).
	ErrClaimsInvalid = errors.New("jwt: claims invalid")
)

// Claims son las claims del bearer token. Son las mismas para firmar y
// validar: sub, exp (unix segundos) y provider.
type Claims struct {
	Subject   string `json:"sub"`
	ExpiresAt int64  `json:"exp"`
	Provider  string `json:"provider"`
}

// wireClaims es la representación firmada. RegisteredClaims usa omitempty en
// todos sus campos, así que sólo viajan sub y exp además de provider.
type wireClaims struct {
	Provider string `json:"provider"`
	jwtv5.RegisteredClaims
}

func (c Claims) toWire() wireClaims {
	return wireClaims{
		Provider: c.Provider,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Subject:   c.Subject,
			ExpiresAt: jwtv5.NewNumericDate(unix(c.ExpiresAt)),
		},
	}
}

func (w *wireClaims) toClaims() Claims {
	out := Claims{Subject: w.Subject, Provider: w.Provider}
	if w.ExpiresAt != nil {
		out.ExpiresAt = w.ExpiresAt.Unix()
	}
	return out
}
