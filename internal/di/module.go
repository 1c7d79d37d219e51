package di

import (
	"go.uber.org/fx"

	"github.com/bankdesk/bankdesk/internal/adminlist"
	"github.com/bankdesk/bankdesk/internal/app"
	"github.com/bankdesk/bankdesk/internal/bot"
	"github.com/bankdesk/bankdesk/internal/config"
	"github.com/bankdesk/bankdesk/internal/events"
	"github.com/bankdesk/bankdesk/internal/logger"
	"github.com/bankdesk/bankdesk/internal/script"
	"github.com/bankdesk/bankdesk/internal/server/http/handlers"
	"github.com/bankdesk/bankdesk/internal/server/http/router"
	"github.com/bankdesk/bankdesk/internal/session"
	"github.com/bankdesk/bankdesk/internal/storage/postgres"
	"github.com/bankdesk/bankdesk/internal/transport/chatapi"
	"github.com/bankdesk/bankdesk/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		adminlist.Module,
		script.Module,
		session.Module,
		chatapi.Module,
		events.Module,
		postgres.Module,
		usecase.Module,
		bot.Module,
		fx.Provide(func(g *bot.Gateway) handlers.UpdateSink { return g }),
		fx.Provide(func(s *postgres.Storage) handlers.HealthChecker { return s }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
