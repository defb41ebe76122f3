// Package cache provee un key/value con TTL para estado efímero (state de
// login OAuth) con dos backends:
//   - memory: go-cache in-process (dev, un solo nodo)
//   - redis: compartido entre réplicas
package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe o expiró.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor. ttl 0 = sin expiración.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Take obtiene y borra la key de forma atómica (uso único).
	Take(ctx context.Context, key string) (string, error)

	Delete(ctx context.Context, key string) error

	// Ping verifica el backend (readiness).
	Ping(ctx context.Context) error

	Close() error

	// Driver devuelve "memory" o "redis".
	Driver() string
}

// ErrNotFound: la key no existe o expiró.
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Config para crear un cliente.
type Config struct {
	Driver   string // "memory" | "redis"
	Addr     string // host:port (redis)
	Password string
	DB       int
	Prefix   string // prefijo para todas las keys
}

// New crea un cliente según cfg.Driver. Vacío = memory.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Driver {
	case "redis":
		return NewRedis(ctx, cfg)
	case "memory", "":
		return NewMemory(cfg.Prefix), nil
	default:
		return nil, errors.New("cache: unknown driver " + cfg.Driver)
	}
}

// JoinKey antepone prefix a k con un único ":" de separador, venga o no
// el prefix terminado en ":".
func JoinKey(prefix, k string) string {
	prefix = strings.TrimSuffix(prefix, ":")
	if prefix == "" {
		return k
	}
	return prefix + ":" + k
}
