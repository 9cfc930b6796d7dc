// Package health contiene el controller para health checks.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/hellojohn-projects/internal/http/helpers"
	"github.com/dropDatabas3/hellojohn-projects/internal/observability/logger"
)

// Pinger lo implementan el store y el cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Response cuerpo de /healthz.
type Response struct {
	Status     string            `json:"status"` // ok | degraded | unavailable
	Components map[string]string `json:"components"`
}

// Controller chequea las dependencias. store es crítico; cache no.
type Controller struct {
	store Pinger
	cache Pinger
}

func NewController(store, cache Pinger) *Controller {
	return &Controller{store: store, cache: cache}
}

// Healthz maneja GET /healthz
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Healthz"))

	resp := Response{Status: "ok", Components: map[string]string{}}
	status := http.StatusOK

	if err := c.store.Ping(ctx); err != nil {
		log.Warn("store ping failed", logger.Err(err))
		resp.Components["store"] = "down"
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	} else {
		resp.Components["store"] = "up"
	}

	if c.cache != nil {
		if err := c.cache.Ping(ctx); err != nil {
			log.Warn("cache ping failed", logger.Err(err))
			resp.Components["cache"] = "down"
			if resp.Status == "ok" {
				resp.Status = "degraded"
			}
		} else {
			resp.Components["cache"] = "up"
		}
	}

	helpers.WriteJSON(w, status, resp)
}
