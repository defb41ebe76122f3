package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/tidasone/internal/http/middlewares"
)

// registerCommsecRoutes registra las rutas KEM/AEAD. Son stateless y públicas.
func registerCommsecRoutes(r chi.Router, d Deps) {
	c := d.Commsec
	if c == nil {
		return
	}

	r.Route("/commsec", func(r chi.Router) {
		use(r, mw.WithNoStore())

		// POST /commsec/keypair devuelve la clave secreta del proceso
		if d.ExposeSecretKey {
			r.Post("/keypair", c.KeyPair)
		}
		r.Get("/keys/pq", c.PublicKey)

		r.Post("/encapsulate", c.Encapsulate)
		r.Post("/decapsulate", c.Decapsulate)

		r.Post("/aead/encrypt", c.Encrypt)
		r.Post("/aead/decrypt", c.Decrypt)
	})
}
