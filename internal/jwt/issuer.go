package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// DefaultTTL es la vida de los tokens emitidos tras el login.
const DefaultTTL = time.Hour

// MinSecretLen es el largo mínimo aceptado para el secreto HS256.
const MinSecretLen = 16

// Issuer firma y valida bearer tokens HS256 con un secreto compartido.
// Se construye una vez al arrancar y es de sólo lectura después.
type Issuer struct {
	secret []byte
	TTL    time.Duration
	now    func() time.Time
}

// NewIssuer crea un Issuer. Un secreto corto es error de configuración.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if len(strings.TrimSpace(secret)) < MinSecretLen {
		return nil, fmt.Errorf("jwt: secret must be at least %d bytes", MinSecretLen)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), TTL: ttl, now: time.Now}, nil
}

// WithClock reemplaza el reloj (tests).
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

// Mint emite un token para sub/provider con exp = now + TTL.
func (i *Issuer) Mint(sub, provider string) (string, Claims, error) {
	c := Claims{
		Subject:   sub,
		Provider:  provider,
		ExpiresAt: i.now().Add(i.TTL).Unix(),
	}
	tok, err := i.MintClaims(c)
	return tok, c, err
}

// MintClaims firma un set de claims explícito. exp debe estar en el futuro.
func (i *Issuer) MintClaims(c Claims) (string, error) {
	if strings.TrimSpace(c.Subject) == "" {
		return "", fmt.Errorf("%w: empty subject", ErrClaimsInvalid)
	}
	if c.ExpiresAt <= i.now().Unix() {
		return "", fmt.Errorf("%w: exp not in the future", ErrClaimsInvalid)
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, c.toWire())
	signed, err := tk.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, nil
}

// Parse valida firma HS256 y exp contra el reloj, y devuelve las claims.
func (i *Issuer) Parse(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrTokenMissing
	}

	var wc wireClaims
	_, err := jwtv5.ParseWithClaims(token, &wc, i.keyfunc,
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(i.now),
	)
	switch {
	case err == nil:
		return wc.toClaims(), nil
	case errors.Is(err, jwtv5.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	default:
		return Claims{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}

func (i *Issuer) keyfunc(*jwtv5.Token) (any, error) { return i.secret, nil }

func unix(sec int64) time.Time { return time.Unix(sec, 0) }
