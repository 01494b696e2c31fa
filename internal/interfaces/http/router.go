// Package http serves the operational endpoints: a store health probe and
// the Prometheus scrape target.
package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carrydesk/carrydesk/internal/interfaces/http/handlers"
	"github.com/carrydesk/carrydesk/internal/interfaces/http/middleware"
	"github.com/carrydesk/carrydesk/internal/shared/logger"
)

type Router struct {
	engine *gin.Engine
	health *handlers.HealthHandler
	logger logger.Interface
}

func NewRouter(checker handlers.HealthChecker, pingTimeout time.Duration, log logger.Interface) *Router {
	engine := gin.New()
	engine.Use(middleware.Logger(log), middleware.Recovery(log))

	return &Router{
		engine: engine,
		health: handlers.NewHealthHandler(checker, pingTimeout),
		logger: log,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", r.health.Healthz)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
