package bot

import (
	"context"

	"go.uber.org/fx"
)

// Module wires the update gateway and its consumer loop.
var Module = fx.Options(
	fx.Provide(NewGateway),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lc fx.Lifecycle, gateway *Gateway) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go gateway.Run()
			return nil
		},
		OnStop: func(context.Context) error {
			gateway.Stop()
			return nil
		},
	})
}
