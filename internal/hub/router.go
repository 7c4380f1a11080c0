package hub

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/forgewave/bombard/internal/api/handler"
	"github.com/forgewave/bombard/internal/auth"
	"github.com/forgewave/bombard/internal/config"
	"github.com/forgewave/bombard/internal/metrics"
	"github.com/forgewave/bombard/internal/middleware"
)

// RouterConfig wires the hub's REST admission router to its auth,
// logging, metrics and audit collaborators.
type RouterConfig struct {
	Hub              *Hub
	Config           *config.Config
	Logger           *zap.Logger
	MetricsCollector *metrics.Collector
	AuditMiddleware  gin.HandlerFunc
	AuthHandler      *handler.AuthHandler
	AuditHandler     *handler.AuditHandler
	JWTService       *auth.JWTService
	APIKeyService    *auth.APIKeyService
}

// NewRESTRouter builds the admission API: POST /bombardier/v1/bombard,
// GET /bombardier/v1/nodes, POST /bombardier/v1/stop, plus /health and
// /metrics.
func NewRESTRouter(rc RouterConfig) *gin.Engine {
	if rc.Config != nil && rc.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RecoveryMiddleware(rc.Logger))
	r.Use(middleware.LoggingMiddlewareWithConfig(middleware.LoggingConfig{
		Logger:    rc.Logger,
		SkipPaths: []string{"/health", "/metrics"},
	}))
	if rc.MetricsCollector != nil {
		r.Use(middleware.MetricsMiddlewareWithConfig(middleware.MetricsMiddlewareConfig{
			Collector: rc.MetricsCollector,
			SkipPaths: []string{"/metrics"},
		}))
	}
	if rc.Config != nil {
		r.Use(middleware.CORSMiddleware(rc.Config))
	} else {
		r.Use(middleware.CORSMiddlewarePermissive())
	}
	if rc.AuditMiddleware != nil {
		r.Use(rc.AuditMiddleware)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "bombard-hub"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if rc.AuthHandler != nil {
		r.POST("/auth/login", rc.AuthHandler.Login)
	}

	admission := r.Group("/bombardier/v1")
	if rc.Config != nil && rc.Config.AuthEnabled && rc.JWTService != nil && rc.APIKeyService != nil {
		admission.Use(middleware.AuthMiddleware(rc.JWTService, rc.APIKeyService))
	}
	{
		admission.POST("/bombard", rc.Hub.Bombard)
		admission.GET("/nodes", rc.Hub.Nodes)
		admission.POST("/stop", rc.Hub.Stop)
		if rc.AuditHandler != nil {
			admission.GET("/audit", rc.AuditHandler.GetAuditLogs)
			admission.GET("/audit/export", rc.AuditHandler.ExportAuditLogs)
		}
	}

	return r
}

// NewSocketRouter builds the separate websocket-registry listener: a
// single upgrade endpoint nodes dial into.
func NewSocketRouter(h *Hub, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RecoveryMiddleware(logger))
	r.GET("/ws", h.ServeWebSocket)
	return r
}
