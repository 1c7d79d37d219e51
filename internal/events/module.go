package events

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/bankdesk/bankdesk/internal/config"
)

// Module provides the lifecycle event publisher, no-op without brokers.
var Module = fx.Provide(newPublisher)

type publisherParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newPublisher(p publisherParams) Publisher {
	if len(p.Config.KafkaBrokers) == 0 {
		return NopPublisher{}
	}

	pub := NewKafkaPublisher(p.Config.KafkaBrokers, p.Logger)
	p.Logger.Info("order events published to kafka", slog.Any("brokers", p.Config.KafkaBrokers))
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	})
	return pub
}
