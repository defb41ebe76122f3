// Package router arma el árbol de rutas HTTP.
package router

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	authctrl "github.com/dropDatabas3/tidasone/internal/http/controllers/auth"
	commsecctrl "github.com/dropDatabas3/tidasone/internal/http/controllers/commsec"
	healthctrl "github.com/dropDatabas3/tidasone/internal/http/controllers/health"
	"github.com/dropDatabas3/tidasone/internal/http/errors"
	mw "github.com/dropDatabas3/tidasone/internal/http/middlewares"
	"github.com/dropDatabas3/tidasone/internal/metrics"
	"github.com/dropDatabas3/tidasone/internal/rate"
)

// Deps contiene todo lo que necesita el router.
type Deps struct {
	Auth    *authctrl.AuthController
	Commsec *commsecctrl.CommsecController
	Health  *healthctrl.HealthController

	// TokenParser valida el bearer de /auth/me.
	TokenParser mw.TokenParser

	// LoginLimiter limita /auth/login y /auth/callback. nil = sin límite.
	LoginLimiter rate.Limiter

	// Metrics es opcional; si es nil no se expone /metrics.
	Metrics *metrics.Metrics

	// ExposeSecretKey monta POST /commsec/keypair.
	ExposeSecretKey bool

	// TrustedProxies: peers cuyo X-Forwarded-For se respeta. Vacío = ninguno.
	TrustedProxies []*net.IPNet
}

// New construye el handler raíz.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	// recover va primero para cubrir también logging y métricas
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithClientIP(d.TrustedProxies),
		mw.WithLogging(),
	)
	if m := mw.WithMetrics(d.Metrics); m != nil {
		r.Use(m)
	}
	r.Use(mw.WithSecurityHeaders())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, errors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, errors.ErrMethodNotAllowed)
	})

	registerHealthRoutes(r, d)
	registerAuthRoutes(r, d)
	registerCommsecRoutes(r, d)

	return r
}

// use agrega middlewares ignorando los nil (deshabilitados).
func use(r chi.Router, mws ...mw.Middleware) {
	for _, m := range mws {
		if m != nil {
			r.Use(m)
		}
	}
}
