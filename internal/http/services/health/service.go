package health

import (
	"context"
	"time"

	dto "github.com/dropDatabas3/tidasone/internal/http/dto/health"
	"github.com/dropDatabas3/tidasone/internal/http/providers"
)

// Pinger es cualquier dependencia que se pueda sondear (cache).
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthService arma la respuesta de /readyz.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

type Deps struct {
	Cache     Pinger // nil = componente deshabilitado
	Providers *providers.Registry
	Version   string
	Timeout   time.Duration
}

type healthService struct {
	d Deps
}

func NewHealthService(d Deps) HealthService {
	if d.Timeout <= 0 {
		d.Timeout = 2 * time.Second
	}
	return &healthService{d: d}
}

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	resp := dto.HealthResponse{
		Status:     "ready",
		Components: map[string]dto.HealthStatus{},
		Version:    s.d.Version,
		Providers:  s.d.Providers.Names(),
		Timestamp:  time.Now().UTC(),
	}
	if resp.Providers == nil {
		resp.Providers = []string{}
	}

	if s.d.Cache == nil {
		resp.Components["cache"] = dto.HealthStatus{Status: "disabled"}
	} else {
		pctx, cancel := context.WithTimeout(ctx, s.d.Timeout)
		defer cancel()
		if err := s.d.Cache.Ping(pctx); err != nil {
			resp.Status = "unavailable"
			resp.Components["cache"] = dto.HealthStatus{Status: "error", Message: err.Error()}
		} else {
			resp.Components["cache"] = dto.HealthStatus{Status: "ok"}
		}
	}
	return resp
}
