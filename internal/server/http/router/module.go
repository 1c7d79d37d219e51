package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/bankdesk/bankdesk/internal/config"
	"github.com/bankdesk/bankdesk/internal/server/http/handlers"
)

// Module registers HTTP router construction for fx runtime.
var Module = fx.Provide(newEngine)

type routerParams struct {
	fx.In

	Sink   handlers.UpdateSink
	Health handlers.HealthChecker
	Config *config.Config
	Logger *slog.Logger
}

func newEngine(p routerParams) *gin.Engine {
	return Setup(p.Sink, p.Health, p.Config.WebhookSecret, p.Logger)
}
