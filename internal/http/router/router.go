// Package router assembles the gin engine from the application modules.
package router

import (
	"context"
	"net/http"
	"time"

	apphttp "opc_crm_backend/internal/http"
	"opc_crm_backend/internal/obs"
	"opc_crm_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// New builds the engine: global middleware, health and metrics, then every module's routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(obs.GinMiddleware())
	engine.Use(cors.New(corsConfig(app.Config)))

	obs.Init()
	engine.GET("/metrics", gin.WrapH(obs.Handler()))
	engine.GET("/api/health", healthHandler(app.Health))

	v1 := engine.Group("/api/v1")
	auth := httpkit.AuthRequired(app.Config)
	protected := v1.Group("", auth)

	rc := &apphttp.RouterContext{
		Engine:            engine,
		V1:                v1,
		Protected:         protected,
		Admin:             protected.Group("/admin"),
		Config:            app.Config,
		AuthMiddleware:    auth,
		ImportRateLimiter: httpkit.NewImportRateLimiter(app.Logger),
	}

	for _, m := range app.Modules {
		m.RegisterRoutes(rc)
		app.Logger.Debug("module routes registered", "module", m.Name())
	}

	return engine
}

func corsConfig(cfg apphttp.RouterConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.GetCORSOrigins()
	}
	return c
}

func healthHandler(health apphttp.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if health == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := health.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
