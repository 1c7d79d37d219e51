package adminlist

import (
	"go.uber.org/fx"

	"github.com/bankdesk/bankdesk/internal/config"
)

// Module wires the administrator allow-list.
var Module = fx.Provide(func(cfg *config.Config) (*List, error) {
	return Open(cfg.AdminsFile)
})
