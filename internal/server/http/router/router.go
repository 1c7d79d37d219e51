package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/bankdesk/bankdesk/internal/server/http/handlers"
	"github.com/bankdesk/bankdesk/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(sink handlers.UpdateSink, health handlers.HealthChecker, webhookSecret string, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	updateHandler := handlers.NewUpdateHandler(sink, health)

	engine.GET("/healthz", updateHandler.Health)

	api := engine.Group("/api")
	api.Use(middleware.RequireSecret(webhookSecret))
	api.POST("/updates", updateHandler.Receive)

	return engine
}
