package chatapi

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/bankdesk/bankdesk/internal/config"
	"github.com/bankdesk/bankdesk/internal/transport"
)

// Module exposes the chat API client as the transport.Messenger capability.
var Module = fx.Provide(newMessenger)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newMessenger(p clientParams) (transport.Messenger, error) {
	return New(p.Config.ChatAPIURL, p.Logger)
}
