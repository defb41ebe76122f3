package middlewares

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/tidasone/internal/http/errors"
	"github.com/dropDatabas3/tidasone/internal/jwt"
	"github.com/dropDatabas3/tidasone/internal/observability/logger"
)

// TokenParser valida un bearer token. *jwt.Issuer lo implementa.
type TokenParser interface {
	Parse(token string) (jwt.Claims, error)
}

// RequireAuth valida Authorization: Bearer <JWT> y guarda las claims en el
// contexto. Cualquier falla (header ausente, firma, expiración) es 401 sin
// detalle; el token nunca se loguea.
func RequireAuth(parser TokenParser) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}
			claims, err := parser.Parse(raw)
			if err != nil {
				logger.From(r.Context()).Debug("bearer rejected", logger.Layer("middleware"), logger.Err(err))
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(ah) <= len(prefix) || !strings.EqualFold(ah[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(ah[len(prefix):])
	return tok, tok != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
	errors.WriteError(w, errors.ErrUnauthorized)
}
