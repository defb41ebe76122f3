package middlewares

import (
	"context"

	"github.com/dropDatabas3/tidasone/internal/jwt"
)

type ctxKey string

const (
	ctxClaimsKey    ctxKey = "claims"
	ctxRequestIDKey ctxKey = "request_id"
)

// WithClaims inyecta las claims verificadas en el contexto.
func WithClaims(ctx context.Context, c jwt.Claims) context.Context {
	return context.WithValue(ctx, ctxClaimsKey, c)
}

// GetClaims obtiene las claims del contexto. ok=false si RequireAuth no corrió.
func GetClaims(ctx context.Context) (jwt.Claims, bool) {
	c, ok := ctx.Value(ctxClaimsKey).(jwt.Claims)
	return c, ok
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetRequestID obtiene el request ID del contexto ("" si no hay).
func GetRequestID(ctx context.Context) string {
	s, _ := ctx.Value(ctxRequestIDKey).(string)
	return s
}
