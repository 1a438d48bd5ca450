// Package router assembles the Gin engine from shared middleware and the
// registered domain modules.
package router

import (
	"context"
	"net/http"

	"funilzap_backend/internal/auth/domain"
	"funilzap_backend/internal/config"
	apphttp "funilzap_backend/internal/http"
	"funilzap_backend/platform/httpkit"
	"funilzap_backend/platform/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// New builds the engine, mounts shared middleware and registers all modules.
func New(cfg *config.Config, log *logger.Logger, sessions httpkit.SessionToucher, health HealthChecker, modules []apphttp.Module) *gin.Engine {
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(log))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(httpkit.Metrics())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	globalLimiter := httpkit.NewIPRateLimiter(25, 50, log)
	engine.Use(globalLimiter.RateLimit())

	engine.GET("/api/health", func(c *gin.Context) {
		if health != nil {
			if err := health.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", httpkit.MetricsHandler())

	authMiddleware := httpkit.AuthRequired(cfg.JWTSecret, sessions)

	v1 := engine.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(authMiddleware)
	admin := v1.Group("/admin")
	admin.Use(authMiddleware, httpkit.RequireAtLeast(string(domain.RoleAdmin), domain.RoleRank))

	routerCtx := &apphttp.RouterContext{
		Engine:          engine,
		V1:              v1,
		Protected:       protected,
		Admin:           admin,
		AuthMiddleware:  authMiddleware,
		AuthRateLimiter: httpkit.NewAuthRateLimiter(log),
	}

	for _, module := range modules {
		module.RegisterRoutes(routerCtx)
		log.Info("module routes registered", "module", module.Name())
	}

	return engine
}
