package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/tidasone/internal/http/providers"
	"github.com/dropDatabas3/tidasone/internal/identity"
	"github.com/dropDatabas3/tidasone/internal/jwt"
	"github.com/dropDatabas3/tidasone/internal/metrics"
	"github.com/dropDatabas3/tidasone/internal/observability/logger"
)

// Stage es la etapa alcanzada por un callback. Avanza en orden y el primer
// error la deja fija.
type Stage int

const (
	StageInit Stage = iota
	StageProviderResolved
	StageCodeExchanged
	StageProfileFetched
	StageSubjectResolved
	StageTokenIssued
)

func (s Stage) String() string {
	switch s {
	case StageInit:
		return "init"
	case StageProviderResolved:
		return "provider_resolved"
	case StageCodeExchanged:
		return "code_exchanged"
	case StageProfileFetched:
		return "profile_fetched"
	case StageSubjectResolved:
		return "subject_resolved"
	case StageTokenIssued:
		return "token_issued"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// CallbackRequest son los parámetros de /auth/callback/{provider}.
type CallbackRequest struct {
	Provider string
	Code     string
	State    string
}

// CallbackResult es el bearer token emitido.
type CallbackResult struct {
	Token  string
	Claims jwt.Claims
}

// CallbackService completa el login: code -> access token -> perfil -> subject -> token.
type CallbackService interface {
	Callback(ctx context.Context, req CallbackRequest) (*CallbackResult, error)
}

type CallbackDeps struct {
	Providers *providers.Registry
	Issuer    *jwt.Issuer
	States    *stateStore
	Timeout   time.Duration
	Metrics   *metrics.Metrics
}

type callbackService struct {
	providers *providers.Registry
	issuer    *jwt.Issuer
	states    *stateStore
	timeout   time.Duration
	metrics   *metrics.Metrics
}

func NewCallbackService(d CallbackDeps) CallbackService {
	return &callbackService{
		providers: d.Providers,
		issuer:    d.Issuer,
		states:    d.States,
		timeout:   d.Timeout,
		metrics:   d.Metrics,
	}
}

func (s *callbackService) Callback(ctx context.Context, req CallbackRequest) (res *CallbackResult, err error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("social.Callback"))

	name := strings.ToLower(strings.TrimSpace(req.Provider))
	stage := StageInit
	defer func() {
		label := name
		if stage == StageInit {
			label = "unknown"
		}
		if err != nil {
			log.Warn("callback failed", logger.Provider(label), logger.String("stage", stage.String()), logger.Err(err))
			s.metrics.Login(label, "callback", metrics.OutcomeError)
			return
		}
		s.metrics.Login(label, "callback", metrics.OutcomeOK)
	}()

	p, ok := s.providers.Get(name)
	if !ok {
		return nil, ErrUnknownProvider
	}
	stage = StageProviderResolved

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, ErrMissingCode
	}
	if err := s.states.Consume(ctx, p.Name(), req.State); err != nil {
		return nil, err
	}

	tok, err := s.exchange(ctx, p, code)
	if err != nil {
		return nil, err
	}
	stage = StageCodeExchanged

	prof, err := s.userInfo(ctx, p, tok.AccessToken)
	if err != nil {
		return nil, err
	}
	stage = StageProfileFetched

	sub := identity.Resolve(prof.Identity())
	stage = StageSubjectResolved

	signed, claims, err := s.issuer.Mint(sub, p.Name())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMint, err)
	}
	stage = StageTokenIssued

	log.Info("login completed", logger.Provider(p.Name()), logger.Subject(sub))
	return &CallbackResult{Token: signed, Claims: claims}, nil
}

func (s *callbackService) exchange(ctx context.Context, p providers.Provider, code string) (*providers.TokenSet, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	tok, err := p.Exchange(ctx, code)
	if err != nil && !errors.Is(err, providers.ErrExchange) {
		return nil, fmt.Errorf("%w: %v", providers.ErrExchange, err)
	}
	return tok, err
}

func (s *callbackService) userInfo(ctx context.Context, p providers.Provider, accessToken string) (providers.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	prof, err := p.UserInfo(ctx, accessToken)
	if err != nil && !errors.Is(err, providers.ErrProfile) && !errors.Is(err, providers.ErrProfileDecode) {
		// proveedores de terceros pueden devolver errores crudos
		return nil, fmt.Errorf("%w: %v", providers.ErrProfile, err)
	}
	return prof, err
}
