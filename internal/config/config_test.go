package config

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/tidasone/internal/security/secretbox"
)

const testSecret = "0123456789abcdef0123"

// unsetEnv limpia variables del entorno del host; t.Setenv restaura al final.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func cleanEnv(t *testing.T) {
	unsetEnv(t,
		"APP_ENV", "LOG_LEVEL", "SERVER_ADDR", "PUBLIC_BASE_URL", "JWT_SECRET", "JWT_TTL",
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_REDIRECT_URL",
		"GITHUB_CLIENT_ID", "GITHUB_CLIENT_SECRET", "GITHUB_REDIRECT_URL",
		"AMAZON_CLIENT_ID", "AMAZON_CLIENT_SECRET", "AMAZON_REDIRECT_URL",
		"UPSTREAM_TIMEOUT", "STATE_ENFORCE", "STATE_TTL", "CACHE_KIND", "REDIS_ADDR",
		"RATE_ENABLED", "RATE_LOGIN_LIMIT", "RATE_LOGIN_WINDOW", "TRUSTED_PROXIES", "REDIS_PREFIX",
		"COMMSEC_EXPOSE_SECRET_KEY", "SECRETBOX_MASTER_KEY",
	)
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)
	t.Setenv("JWT_SECRET", testSecret)

	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "dev", c.App.Env)
	require.Equal(t, "127.0.0.1:3000", c.Server.Addr)
	require.Equal(t, "http://127.0.0.1:3000", c.Server.PublicBaseURL)
	require.Equal(t, time.Hour, c.JWT.TTL)
	require.Equal(t, 10*time.Second, c.Providers.UpstreamTimeout)
	require.True(t, c.State.Enforce)
	require.Equal(t, 10*time.Minute, c.State.TTL)
	require.Equal(t, "memory", c.Cache.Kind)
	require.True(t, c.Commsec.ExposeSecretKey)
	require.Empty(t, c.ProviderConfigs())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	cleanEnv(t)
	path := writeYAML(t, `
server:
  addr: 0.0.0.0:8080
  public_base_url: https://auth.example.com/
jwt:
  secret: yaml-secret-0123456789
  ttl: 30m
providers:
  google:
    client_id: g-id
    client_secret: g-secret
state:
  enforce: false
rate:
  enabled: true
`)
	t.Setenv("GITHUB_CLIENT_ID", "gh-id")
	t.Setenv("GITHUB_CLIENT_SECRET", "gh-secret")
	t.Setenv("GITHUB_REDIRECT_URL", "https://app.example.com/cb")
	t.Setenv("RATE_LOGIN_LIMIT", "5")
	t.Setenv("JWT_TTL", "2h")

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8080", c.Server.Addr)
	require.Equal(t, "https://auth.example.com", c.Server.PublicBaseURL)
	require.Equal(t, 2*time.Hour, c.JWT.TTL)
	require.False(t, c.State.Enforce)
	require.True(t, c.Rate.Enabled)
	require.Equal(t, 5, c.Rate.Login.Limit)
	require.Equal(t, time.Minute, c.Rate.Login.Window)

	pcs := c.ProviderConfigs()
	require.Len(t, pcs, 2)
	require.Equal(t, "github", pcs[0].Name)
	require.Equal(t, "https://app.example.com/cb", pcs[0].RedirectURL)
	require.Equal(t, "google", pcs[1].Name)
	require.Equal(t, "https://auth.example.com/auth/callback/google", pcs[1].RedirectURL)
	require.Equal(t, "g-secret", pcs[1].ClientSecret)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing jwt secret", nil, "JWT_SECRET"},
		{"short jwt secret", map[string]string{"JWT_SECRET": "short"}, "JWT_SECRET"},
		{"bad env", map[string]string{"JWT_SECRET": testSecret, "APP_ENV": "staging"}, "app.env"},
		{"bad cache", map[string]string{"JWT_SECRET": testSecret, "CACHE_KIND": "memcached"}, "cache.kind"},
		{"redis without addr", map[string]string{"JWT_SECRET": testSecret, "CACHE_KIND": "redis"}, "cache.redis.addr"},
		{"client id without secret", map[string]string{"JWT_SECRET": testSecret, "AMAZON_CLIENT_ID": "a"}, "providers.amazon"},
		{"bad trusted proxy", map[string]string{"JWT_SECRET": testSecret, "TRUSTED_PROXIES": "10.0.0.0/8,lb.internal"}, "server.trusted_proxies"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cleanEnv(t)
	t.Setenv("JWT_SECRET", testSecret)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_SealedSecrets(t *testing.T) {
	key, err := secretbox.GenerateKey()
	require.NoError(t, err)
	box, err := secretbox.New(key)
	require.NoError(t, err)
	sealed, err := box.Seal("google-client-secret")
	require.NoError(t, err)

	t.Run("opened with master key", func(t *testing.T) {
		cleanEnv(t)
		t.Setenv("JWT_SECRET", testSecret)
		t.Setenv("GOOGLE_CLIENT_ID", "g-id")
		t.Setenv("GOOGLE_CLIENT_SECRET", sealed)
		t.Setenv("SECRETBOX_MASTER_KEY", key)

		c, err := Load("")
		require.NoError(t, err)
		require.Equal(t, "google-client-secret", c.Providers.Google.ClientSecret)
	})

	t.Run("sealed without master key", func(t *testing.T) {
		cleanEnv(t)
		t.Setenv("JWT_SECRET", testSecret)
		t.Setenv("GOOGLE_CLIENT_ID", "g-id")
		t.Setenv("GOOGLE_CLIENT_SECRET", sealed)

		_, err := Load("")
		require.Error(t, err)
		require.Contains(t, err.Error(), secretbox.EnvVar)
	})
}

func TestLoad_TrustedProxies(t *testing.T) {
	cleanEnv(t)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.10,2001:db8::1")

	c, err := Load("")
	require.NoError(t, err)
	nets, err := c.TrustedProxyNets()
	require.NoError(t, err)
	require.Len(t, nets, 3)
	require.Equal(t, "10.0.0.0/8", nets[0].String())
	require.Equal(t, "192.0.2.10/32", nets[1].String())
	require.Equal(t, "2001:db8::1/128", nets[2].String())
	require.True(t, nets[0].Contains(net.ParseIP("10.1.2.3")))
	require.False(t, nets[1].Contains(net.ParseIP("192.0.2.11")))
}

func TestDefault_RedisPrefixHasNoSeparator(t *testing.T) {
	require.Equal(t, "tidasone", Default().Cache.Redis.Prefix)
}
