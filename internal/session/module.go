package session

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/bankdesk/bankdesk/internal/config"
)

// Module provides the session store, Redis-backed when configured.
var Module = fx.Provide(newStore)

type storeParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newStore(p storeParams) Store {
	if p.Config.RedisAddr == "" {
		return NewMemoryStore()
	}

	store := NewRedisStore(p.Config.RedisAddr, p.Config.SessionTTL)
	p.Logger.Info("session cache backed by redis", slog.String("addr", p.Config.RedisAddr))
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return store
}
