// Package health contiene el controller para health checks.
package health

import (
	"net/http"

	"github.com/dropDatabas3/tidasone/internal/http/helpers"
	svc "github.com/dropDatabas3/tidasone/internal/http/services/health"
	"github.com/dropDatabas3/tidasone/internal/observability/logger"
)

// HealthController maneja las rutas de health check.
type HealthController struct {
	service svc.HealthService
}

func NewHealthController(service svc.HealthService) *HealthController {
	return &HealthController{service: service}
}

// Readyz maneja GET /readyz
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := c.service.Check(ctx)

	status := http.StatusOK
	if resp.Status == "unavailable" {
		status = http.StatusServiceUnavailable
		logger.From(ctx).Warn("readiness failed", logger.Layer("controller"), logger.Any("components", resp.Components))
	}
	helpers.WriteJSON(w, status, resp)
}

// Healthz maneja GET /healthz. Solo confirma que el proceso responde.
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
