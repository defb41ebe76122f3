package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/tidasone/internal/http/providers"
	"github.com/dropDatabas3/tidasone/internal/http/providers/amazon"
	"github.com/dropDatabas3/tidasone/internal/http/providers/github"
	"github.com/dropDatabas3/tidasone/internal/http/providers/google"
	"github.com/dropDatabas3/tidasone/internal/jwt"
	"github.com/dropDatabas3/tidasone/internal/security/secretbox"
)

// PathEnv permite indicar el YAML sin flag.
const PathEnv = "CONFIG_PATH"

type Config struct {
	App struct {
		// dev | prod
		Env      string `yaml:"env" env:"APP_ENV"`
		LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	} `yaml:"app"`

	Server struct {
		Addr            string        `yaml:"addr" env:"SERVER_ADDR"`
		PublicBaseURL   string        `yaml:"public_base_url" env:"PUBLIC_BASE_URL"`
		ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
		// IPs o CIDRs de proxies cuyo X-Forwarded-For se respeta.
		TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES" envSeparator:","`
	} `yaml:"server"`

	JWT struct {
		Secret string `yaml:"secret" env:"JWT_SECRET"`
		// TTL solo para `token mint`; el servidor firma siempre con jwt.DefaultTTL.
		TTL time.Duration `yaml:"ttl" env:"JWT_TTL"`
	} `yaml:"jwt"`

	Providers struct {
		Google Provider `yaml:"google" envPrefix:"GOOGLE_"`
		GitHub Provider `yaml:"github" envPrefix:"GITHUB_"`
		Amazon Provider `yaml:"amazon" envPrefix:"AMAZON_"`

		UpstreamTimeout time.Duration `yaml:"upstream_timeout" env:"UPSTREAM_TIMEOUT"`
	} `yaml:"providers"`

	State struct {
		Enforce bool          `yaml:"enforce" env:"STATE_ENFORCE"`
		TTL     time.Duration `yaml:"ttl" env:"STATE_TTL"`
	} `yaml:"state"`

	Cache struct {
		Kind  string `yaml:"kind" env:"CACHE_KIND"`
		Redis struct {
			Addr     string `yaml:"addr" env:"REDIS_ADDR"`
			Password string `yaml:"password" env:"REDIS_PASSWORD"`
			DB       int    `yaml:"db" env:"REDIS_DB"`
			Prefix   string `yaml:"prefix" env:"REDIS_PREFIX"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Rate struct {
		Enabled bool `yaml:"enabled" env:"RATE_ENABLED"`
		Login   struct {
			Limit  int           `yaml:"limit" env:"RATE_LOGIN_LIMIT"`
			Window time.Duration `yaml:"window" env:"RATE_LOGIN_WINDOW"`
		} `yaml:"login"`
	} `yaml:"rate"`

	Commsec struct {
		// ExposeSecretKey habilita POST /commsec/keypair (devuelve la clave secreta).
		ExposeSecretKey bool `yaml:"expose_secret_key" env:"COMMSEC_EXPOSE_SECRET_KEY"`
	} `yaml:"commsec"`

	Security struct {
		// base64(32 bytes); abre client secrets y JWT secret sellados.
		SecretBoxMasterKey string `yaml:"secretbox_master_key" env:"SECRETBOX_MASTER_KEY"`
	} `yaml:"security"`
}

// Provider es la config de un proveedor OAuth. Se habilita con ClientID.
// Los endpoints vacíos toman los defaults del proveedor.
type Provider struct {
	ClientID     string `yaml:"client_id" env:"CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"CLIENT_SECRET"`
	RedirectURL  string `yaml:"redirect_url" env:"REDIRECT_URL"`
	AuthURL      string `yaml:"auth_url" env:"AUTH_URL"`
	TokenURL     string `yaml:"token_url" env:"TOKEN_URL"`
	ProfileURL   string `yaml:"profile_url" env:"PROFILE_URL"`
}

func (p Provider) Enabled() bool { return strings.TrimSpace(p.ClientID) != "" }

// Default devuelve la config base. Load aplica YAML y env encima.
func Default() *Config {
	var c Config
	c.App.Env = "dev"
	c.App.LogLevel = "info"
	c.Server.Addr = "127.0.0.1:3000"
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.JWT.TTL = jwt.DefaultTTL
	c.Providers.UpstreamTimeout = 10 * time.Second
	c.State.Enforce = true
	c.State.TTL = 10 * time.Minute
	c.Cache.Kind = "memory"
	c.Cache.Redis.Prefix = "tidasone"
	c.Rate.Login.Limit = 20
	c.Rate.Login.Window = time.Minute
	c.Commsec.ExposeSecretKey = true
	return &c
}

// Load lee el YAML (opcional si path == ""), aplica overrides de entorno,
// abre secretos sellados y valida.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("config yaml: %w", err)
		}
	}

	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}

	c.normalize()
	if err := c.openSealed(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) normalize() {
	c.App.Env = strings.ToLower(strings.TrimSpace(c.App.Env))
	c.Cache.Kind = strings.ToLower(strings.TrimSpace(c.Cache.Kind))
	if c.Server.PublicBaseURL == "" {
		c.Server.PublicBaseURL = "http://" + c.Server.Addr
	}
	c.Server.PublicBaseURL = strings.TrimRight(c.Server.PublicBaseURL, "/")
}

// openSealed reemplaza los valores con formato secretbox por su texto plano.
func (c *Config) openSealed() error {
	targets := map[string]*string{
		"jwt.secret":                     &c.JWT.Secret,
		"providers.google.client_secret": &c.Providers.Google.ClientSecret,
		"providers.github.client_secret": &c.Providers.GitHub.ClientSecret,
		"providers.amazon.client_secret": &c.Providers.Amazon.ClientSecret,
	}

	var box *secretbox.Box
	for name, v := range targets {
		if !secretbox.IsSealed(*v) {
			continue
		}
		if box == nil {
			if c.Security.SecretBoxMasterKey == "" {
				return fmt.Errorf("config: %s está sellado pero falta %s", name, secretbox.EnvVar)
			}
			var err error
			if box, err = secretbox.New(c.Security.SecretBoxMasterKey); err != nil {
				return fmt.Errorf("config: %s: %w", secretbox.EnvVar, err)
			}
		}
		plain, err := box.Open(*v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
		*v = plain
	}
	return nil
}

// Validate chequea lo mínimo para arrancar. Errores de config abortan el
// arranque, nunca un request.
func (c *Config) Validate() error {
	var errs []error

	switch c.App.Env {
	case "dev", "prod":
	default:
		errs = append(errs, fmt.Errorf("app.env inválido %q (dev|prod)", c.App.Env))
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr requerido"))
	}
	if u, err := url.Parse(c.Server.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("server.public_base_url inválido %q", c.Server.PublicBaseURL))
	}
	if len(c.JWT.Secret) < jwt.MinSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET requerido (mínimo %d bytes)", jwt.MinSecretLen))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, errors.New("jwt.ttl debe ser > 0"))
	}
	if c.Providers.UpstreamTimeout <= 0 {
		errs = append(errs, errors.New("providers.upstream_timeout debe ser > 0"))
	}
	if c.State.TTL <= 0 {
		errs = append(errs, errors.New("state.ttl debe ser > 0"))
	}

	for _, np := range c.providerList() {
		if np.cfg.Enabled() && strings.TrimSpace(np.cfg.ClientSecret) == "" {
			errs = append(errs, fmt.Errorf("providers.%s: client_secret requerido", np.name))
		}
	}

	switch c.Cache.Kind {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			errs = append(errs, errors.New("cache.redis.addr requerido con cache.kind=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.kind inválido %q (memory|redis)", c.Cache.Kind))
	}

	if c.Rate.Enabled && (c.Rate.Login.Limit <= 0 || c.Rate.Login.Window <= 0) {
		errs = append(errs, errors.New("rate.login: limit y window deben ser > 0"))
	}
	if _, err := c.TrustedProxyNets(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// TrustedProxyNets parsea server.trusted_proxies. Una IP suelta vale como /32 o /128.
func (c *Config) TrustedProxyNets() ([]*net.IPNet, error) {
	var out []*net.IPNet
	for _, raw := range c.Server.TrustedProxies {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if !strings.Contains(s, "/") {
			ip := net.ParseIP(s)
			if ip == nil {
				return nil, fmt.Errorf("server.trusted_proxies: IP inválida %q", s)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(s)
		if err != nil {
			return nil, fmt.Errorf("server.trusted_proxies: CIDR inválido %q", s)
		}
		out = append(out, n)
	}
	return out, nil
}

type namedProvider struct {
	name string
	cfg  Provider
}

// providerList mantiene un orden fijo para logs y errores reproducibles.
func (c *Config) providerList() []namedProvider {
	return []namedProvider{
		{amazon.ProviderName, c.Providers.Amazon},
		{github.ProviderName, c.Providers.GitHub},
		{google.ProviderName, c.Providers.Google},
	}
}

// ProviderConfigs devuelve la config de los proveedores habilitados.
// Sin redirect_url explícito se usa <public_base_url>/auth/callback/<name>.
func (c *Config) ProviderConfigs() []providers.Config {
	var out []providers.Config
	for _, np := range c.providerList() {
		p := np.cfg
		if !p.Enabled() {
			continue
		}
		redirect := p.RedirectURL
		if redirect == "" {
			redirect = c.Server.PublicBaseURL + "/auth/callback/" + np.name
		}
		out = append(out, providers.Config{
			Name:         np.name,
			AuthURL:      p.AuthURL,
			TokenURL:     p.TokenURL,
			ProfileURL:   p.ProfileURL,
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			RedirectURL:  redirect,
		})
	}
	return out
}

// IsProd indica si corre en modo producción.
func (c *Config) IsProd() bool { return c.App.Env == "prod" }
