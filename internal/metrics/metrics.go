// Package metrics define las métricas Prometheus del servicio.
// Standalone para que services y middlewares lo importen sin ciclos.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes usados como label.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics agrupa los collectors. Un *Metrics nil es válido: todos los
// métodos son no-op (tests y CLI).
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInflight prometheus.Gauge

	logins  *prometheus.CounterVec
	commsec *prometheus.CounterVec
}

// New crea y registra las métricas en reg. Con reg nil usa un registry
// nuevo para que los tests no choquen entre sí.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		gatherer: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_logins_total",
			Help: "Logins OAuth por proveedor, etapa y resultado",
		}, []string{"provider", "stage", "outcome"}),
		commsec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commsec_operations_total",
			Help: "Operaciones KEM/AEAD por operación y resultado",
		}, []string{"op", "outcome"}),
	}
	for _, c := range []prometheus.Collector{m.httpRequests, m.httpDuration, m.httpInflight, m.logins, m.commsec} {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler expone /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Login cuenta un paso del flujo OAuth (stage: start|callback).
func (m *Metrics) Login(provider, stage, outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(provider, stage, outcome).Inc()
}

// Commsec cuenta una operación KEM/AEAD.
func (m *Metrics) Commsec(op string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.commsec.WithLabelValues(op, outcome).Inc()
}

// HTTPStart marca un request en vuelo y devuelve la función que lo cierra.
func (m *Metrics) HTTPStart() func(method, route string, status int) {
	if m == nil {
		return func(string, string, int) {}
	}
	m.httpInflight.Inc()
	start := time.Now()
	return func(method, route string, status int) {
		m.httpInflight.Dec()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
}

// registerCollector registra el collector ignorando duplicados.
func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}
