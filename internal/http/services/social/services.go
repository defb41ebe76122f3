// Package social contiene los services del login con proveedores externos.
package social

import (
	"time"

	"github.com/dropDatabas3/tidasone/internal/cache"
	"github.com/dropDatabas3/tidasone/internal/http/providers"
	"github.com/dropDatabas3/tidasone/internal/jwt"
	"github.com/dropDatabas3/tidasone/internal/metrics"
)

// DefaultUpstreamTimeout acota cada llamada al proveedor.
const DefaultUpstreamTimeout = 10 * time.Second

// DefaultStateTTL es la vida del state entre login y callback.
const DefaultStateTTL = 10 * time.Minute

// Deps contiene las dependencias de los services social.
type Deps struct {
	Providers       *providers.Registry // inmutable tras el arranque
	Issuer          *jwt.Issuer         // firma los bearer tokens
	States          cache.Client        // nil = state sin binding
	EnforceState    bool                // rechaza callbacks sin state válido
	StateTTL        time.Duration
	UpstreamTimeout time.Duration
	Metrics         *metrics.Metrics // opcional
}

// Services agrupa los services del dominio social.
type Services struct {
	Start    StartService
	Callback CallbackService
}

// NewServices crea el agregador de services social.
func NewServices(d Deps) Services {
	if d.StateTTL <= 0 {
		d.StateTTL = DefaultStateTTL
	}
	if d.UpstreamTimeout <= 0 {
		d.UpstreamTimeout = DefaultUpstreamTimeout
	}
	states := &stateStore{c: d.States, ttl: d.StateTTL, enforce: d.EnforceState}

	return Services{
		Start: NewStartService(StartDeps{
			Providers: d.Providers,
			States:    states,
			Metrics:   d.Metrics,
		}),
		Callback: NewCallbackService(CallbackDeps{
			Providers: d.Providers,
			Issuer:    d.Issuer,
			States:    states,
			Timeout:   d.UpstreamTimeout,
			Metrics:   d.Metrics,
		}),
	}
}
