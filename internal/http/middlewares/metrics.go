package middlewares

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/tidasone/internal/metrics"
)

// WithMetrics instrumenta requests con el patrón de ruta de chi como label
// (evita cardinalidad por {provider} o paths inexistentes).
func WithMetrics(m *metrics.Metrics) Middleware {
	if m == nil {
		return nil
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			done := m.HTTPStart()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}
			done(r.Method, route, rec.Status())
		})
	}
}
