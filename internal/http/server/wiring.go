// Package server arma las dependencias y levanta el servidor HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dropDatabas3/tidasone/internal/cache"
	"github.com/dropDatabas3/tidasone/internal/config"
	authctrl "github.com/dropDatabas3/tidasone/internal/http/controllers/auth"
	commsecctrl "github.com/dropDatabas3/tidasone/internal/http/controllers/commsec"
	healthctrl "github.com/dropDatabas3/tidasone/internal/http/controllers/health"
	"github.com/dropDatabas3/tidasone/internal/http/providers"
	"github.com/dropDatabas3/tidasone/internal/http/providers/amazon"
	"github.com/dropDatabas3/tidasone/internal/http/providers/github"
	"github.com/dropDatabas3/tidasone/internal/http/providers/google"
	"github.com/dropDatabas3/tidasone/internal/http/router"
	commsecsvc "github.com/dropDatabas3/tidasone/internal/http/services/commsec"
	healthsvc "github.com/dropDatabas3/tidasone/internal/http/services/health"
	socialsvc "github.com/dropDatabas3/tidasone/internal/http/services/social"
	"github.com/dropDatabas3/tidasone/internal/jwt"
	"github.com/dropDatabas3/tidasone/internal/metrics"
	"github.com/dropDatabas3/tidasone/internal/observability/logger"
	"github.com/dropDatabas3/tidasone/internal/rate"
	"github.com/dropDatabas3/tidasone/internal/security/kem"
)

// Options ajusta Build sin tocar la config (tests y CLI).
type Options struct {
	Version string
	// HTTPClient para las llamadas a los proveedores. nil = uno con UpstreamTimeout.
	HTTPClient *http.Client
	// Registry de prometheus. nil = uno nuevo con los collectors de Go y proceso.
	Registry *prometheus.Registry
}

// App es el resultado del wiring.
type App struct {
	Handler   http.Handler
	Providers *providers.Registry
	Issuer    *jwt.Issuer
	KeyPair   *kem.KeyPair
	Cache     cache.Client

	cleanup []func() error
}

// Close libera las conexiones abiertas por Build.
func (a *App) Close() error {
	var errs []error
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		errs = append(errs, a.cleanup[i]())
	}
	return errors.Join(errs...)
}

// NewProviderBuilder registra las factories de todos los proveedores conocidos.
func NewProviderBuilder() *providers.Builder {
	return providers.NewBuilder().
		RegisterFactory(google.ProviderName, google.Factory).
		RegisterFactory(github.ProviderName, github.Factory).
		RegisterFactory(amazon.ProviderName, amazon.Factory)
}

// Build instancia registry, issuer, keypair, cache, limiter, métricas y router.
// Todo lo que devuelve es inmutable y se comparte entre requests.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := logger.L().With(logger.Component("server"))
	app := &App{}
	fail := func(err error) (*App, error) {
		_ = app.Close()
		return nil, err
	}

	// 1. Token issuer. Los tokens de login viven siempre DefaultTTL;
	// JWT_TTL solo aplica a `token mint`.
	issuer, err := jwt.NewIssuer(cfg.JWT.Secret, jwt.DefaultTTL)
	if err != nil {
		return fail(fmt.Errorf("jwt issuer: %w", err))
	}
	app.Issuer = issuer

	// 2. Providers
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Providers.UpstreamTimeout}
	}
	reg, err := NewProviderBuilder().Build(cfg.ProviderConfigs(), client)
	if err != nil {
		return fail(err)
	}
	app.Providers = reg
	if len(reg.Names()) == 0 {
		log.Warn("no login providers configured; /auth/login will answer 400")
	}

	// 3. KEM keypair del proceso
	kp, err := kem.GenerateKeyPair()
	if err != nil {
		return fail(fmt.Errorf("kem keypair: %w", err))
	}
	app.KeyPair = kp
	if cfg.Commsec.ExposeSecretKey {
		log.Warn("POST /commsec/keypair exposes the server secret key", logger.Algorithm(kem.Algorithm))
	}

	// 4. Cache (state store)
	cc, err := cache.New(ctx, cache.Config{
		Driver:   cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return fail(err)
	}
	app.Cache = cc
	app.cleanup = append(app.cleanup, cc.Close)

	// 5. Rate limiter de login
	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		if rdb, ok := cache.RedisClient(cc); ok {
			limiter = rate.NewRedisLimiter(rdb, cache.JoinKey(cfg.Cache.Redis.Prefix, "rl:"), cfg.Rate.Login.Limit, cfg.Rate.Login.Window)
		} else {
			limiter = rate.NewMemoryLimiter(cfg.Rate.Login.Limit, cfg.Rate.Login.Window)
		}
	}

	// 6. Métricas
	promReg := opts.Registry
	if promReg == nil {
		promReg = prometheus.NewRegistry()
		promReg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m, err := metrics.New(promReg)
	if err != nil {
		return fail(fmt.Errorf("metrics: %w", err))
	}

	// 7. Services
	if !cfg.State.Enforce {
		log.Warn("login state binding disabled (STATE_ENFORCE=false)")
	}
	social := socialsvc.NewServices(socialsvc.Deps{
		Providers:       reg,
		Issuer:          issuer,
		States:          cc,
		EnforceState:    cfg.State.Enforce,
		StateTTL:        cfg.State.TTL,
		UpstreamTimeout: cfg.Providers.UpstreamTimeout,
		Metrics:         m,
	})
	commsec, err := commsecsvc.NewService(commsecsvc.Deps{
		KeyPair:         kp,
		ExposeSecretKey: cfg.Commsec.ExposeSecretKey,
		Metrics:         m,
	})
	if err != nil {
		return fail(err)
	}
	health := healthsvc.NewServices(healthsvc.Deps{
		Cache:     cc,
		Providers: reg,
		Version:   opts.Version,
	})

	// 8. Router
	proxies, err := cfg.TrustedProxyNets()
	if err != nil {
		return fail(err)
	}
	app.Handler = router.New(router.Deps{
		Auth:            authctrl.NewAuthController(social, reg),
		Commsec:         commsecctrl.NewCommsecController(commsec),
		Health:          healthctrl.NewHealthController(health.Health),
		TokenParser:     issuer,
		LoginLimiter:    limiter,
		Metrics:         m,
		ExposeSecretKey: cfg.Commsec.ExposeSecretKey,
		TrustedProxies:  proxies,
	})

	log.Info("wiring ready",
		logger.String("providers", fmt.Sprint(reg.Names())),
		logger.String("cache", cc.Driver()),
		logger.Bool("rate_limit", limiter != nil),
	)
	return app, nil
}
