package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/tidasone/internal/http/middlewares"
)

// registerAuthRoutes registra el login OAuth y /auth/me.
func registerAuthRoutes(r chi.Router, d Deps) {
	c := d.Auth
	if c == nil {
		return
	}

	r.Route("/auth", func(r chi.Router) {
		use(r, mw.WithNoStore())

		r.Get("/providers", c.Providers)

		// login y callback pegan al proveedor: rate limit por IP+path
		r.Group(func(r chi.Router) {
			use(r, mw.WithRateLimit(d.LoginLimiter, mw.IPPathRateKey))

			// GET /auth/login/{provider}
			r.Get("/login/{provider}", c.Login)

			// GET /auth/callback/{provider}?code=&state=
			r.Get("/callback/{provider}", c.Callback)
		})

		// GET /auth/me (requiere bearer)
		r.Group(func(r chi.Router) {
			use(r, mw.RequireAuth(d.TokenParser))
			r.Get("/me", c.Me)
		})
	})
}
