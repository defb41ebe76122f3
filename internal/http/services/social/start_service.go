package social

import (
	"context"
	"strings"

	"github.com/dropDatabas3/tidasone/internal/http/providers"
	"github.com/dropDatabas3/tidasone/internal/metrics"
	"github.com/dropDatabas3/tidasone/internal/observability/logger"
)

// StartService inicia el login: valida el proveedor y arma la redirección.
type StartService interface {
	Start(ctx context.Context, provider string) (*StartResult, error)
}

// StartResult contiene el destino de la redirección.
type StartResult struct {
	RedirectURL string
	State       string
}

type StartDeps struct {
	Providers *providers.Registry
	States    *stateStore
	Metrics   *metrics.Metrics
}

type startService struct {
	providers *providers.Registry
	states    *stateStore
	metrics   *metrics.Metrics
}

func NewStartService(d StartDeps) StartService {
	return &startService{providers: d.Providers, states: d.States, metrics: d.Metrics}
}

func (s *startService) Start(ctx context.Context, provider string) (*StartResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("social.Start"))

	name := strings.ToLower(strings.TrimSpace(provider))
	p, ok := s.providers.Get(name)
	if !ok {
		s.metrics.Login("unknown", "start", metrics.OutcomeError)
		return nil, ErrUnknownProvider
	}

	state, err := s.states.Issue(ctx, p.Name())
	if err != nil {
		log.Error("state issue failed", logger.Provider(name), logger.Err(err))
		s.metrics.Login(name, "start", metrics.OutcomeError)
		return nil, err
	}

	s.metrics.Login(name, "start", metrics.OutcomeOK)
	return &StartResult{RedirectURL: p.AuthorizeURL(state), State: state}, nil
}
