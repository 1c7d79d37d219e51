package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/bankdesk/bankdesk/internal/config"
	"github.com/bankdesk/bankdesk/internal/lockfile"
)

// Module wires the HTTP server and application lifecycle hooks.
var Module = fx.Options(
	fx.Provide(newHTTPServer),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	var lock *lockfile.Lock

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			acquired, err := lockfile.Acquire(p.Config.LockFile)
			if err != nil {
				return err
			}
			lock = acquired

			p.Logger.Info("starting bankdesk", slog.String("addr", p.Server.Addr))
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			err := p.Server.Shutdown(shutdownCtx)
			if err != nil && errors.Is(err, http.ErrServerClosed) {
				err = nil
			}

			if lock != nil {
				if releaseErr := lock.Release(); releaseErr != nil && err == nil {
					err = releaseErr
				}
			}

			if err != nil {
				return err
			}
			p.Logger.Info("bankdesk stopped")
			return nil
		},
	})
}
