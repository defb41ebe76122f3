// Package rate implementa rate limiting de ventana fija por clave (IP + ruta)
// con backend en memoria (go-cache) o Redis.
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
	Hits       int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// windowKey arma la clave de la ventana actual y el tiempo que le queda.
func windowKey(prefix, key string, window time.Duration, now time.Time) (string, time.Duration) {
	start := now.Truncate(window)
	k := fmt.Sprintf("%s%s:%d", prefix, strings.ReplaceAll(key, " ", "_"), start.Unix())
	return k, start.Add(window).Sub(now)
}

func result(hits, max int64, left time.Duration) Result {
	res := Result{Allowed: hits <= max, Hits: hits, Remaining: max - hits}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !res.Allowed {
		res.RetryAfter = left
	}
	return res
}
