package http

import (
	"github.com/gin-gonic/gin"

	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/monitoring/logging"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/monitoring/prometheus"
	"github.com/c-nielson/CS534-Final-Project/internal/interfaces/http/handlers"
	"github.com/c-nielson/CS534-Final-Project/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and infrastructure of the status
// server.  Nil handlers leave their routes unmounted.
type RouterConfig struct {
	HealthHandler *handlers.HealthHandler
	RunHandler    *handlers.RunHandler

	Logger           logging.Logger
	MetricsCollector prometheus.MetricsCollector
	Logging          *middleware.LoggingConfig
}

// NewRouter builds the route tree:
//
//	GET  /healthz          liveness
//	GET  /readyz           readiness of cache, object store and broker
//	GET  /metrics          Prometheus scrape
//	GET  /v1/runs/latest   report of the most recent run
//	POST /v1/runs          queue a run
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logCfg := middleware.DefaultLoggingConfig()
	if cfg.Logging != nil {
		logCfg = *cfg.Logging
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger, logCfg))

	if h := cfg.HealthHandler; h != nil {
		r.GET("/healthz", h.Liveness)
		r.GET("/readyz", h.Readiness)
	}

	if cfg.MetricsCollector != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	if h := cfg.RunHandler; h != nil {
		v1 := r.Group("/v1")
		{
			v1.GET("/runs/latest", h.Latest)
			if h.CanTrigger() {
				v1.POST("/runs", h.Trigger)
			}
		}
	}

	return r
}

//Personal.AI order the ending
