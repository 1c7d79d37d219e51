package script

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/bankdesk/bankdesk/internal/config"
)

// Module wires the script catalog and its reload watcher.
var Module = fx.Options(
	fx.Provide(newCatalog),
	fx.Invoke(registerWatcher),
)

type catalogParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newCatalog(p catalogParams) (*Catalog, error) {
	return New(p.Config.ScriptsFile, p.Logger)
}

func registerWatcher(lc fx.Lifecycle, catalog *Catalog, cfg *config.Config) {
	done := make(chan struct{})
	stopped := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(stopped)
				catalog.Watch(done, cfg.ScriptsPollPeriod)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			close(done)
			<-stopped
			return nil
		},
	})
}
