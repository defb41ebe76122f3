package middlewares

import (
	"context"
	"net"
	"net/http"
	"strings"
)

const ctxClientIPKey ctxKey = "client_ip"

// WithClientIP resuelve la IP del cliente una vez por request.
// X-Forwarded-For solo se considera si el peer directo está en trusted; en
// ese caso se toma la entrada más a la derecha que no sea un proxy confiable.
// Sin trusted la IP es siempre la de RemoteAddr.
func WithClientIP(trusted []*net.IPNet) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := resolveClientIP(r, trusted)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxClientIPKey, ip)))
		})
	}
}

// GetClientIP devuelve la IP resuelta por WithClientIP ("" si no corrió).
func GetClientIP(ctx context.Context) string {
	s, _ := ctx.Value(ctxClientIPKey).(string)
	return s
}

func clientIP(r *http.Request) string {
	if ip := GetClientIP(r.Context()); ip != "" {
		return ip
	}
	return remoteHost(r)
}

func resolveClientIP(r *http.Request, trusted []*net.IPNet) string {
	peer := remoteHost(r)
	if len(trusted) == 0 || !inNets(peer, trusted) {
		return peer
	}
	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if net.ParseIP(hop) == nil {
			// entrada basura: no se puede seguir la cadena
			return peer
		}
		if !inNets(hop, trusted) {
			return hop
		}
	}
	return peer
}

func remoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func inNets(ip string, nets []*net.IPNet) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, n := range nets {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}
