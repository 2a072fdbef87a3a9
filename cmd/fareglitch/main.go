package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fareglitch/internal/application"
	"fareglitch/internal/config"
	"fareglitch/pkg/contextx"
	"fareglitch/pkg/logx"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config.Load", logx.Error(err))
		os.Exit(1)
	}

	log := logx.NewLogger(os.Stdout, cfg.App.LogLevel, cfg.App.LogFormat).
		With(slog.String(logx.FieldAppName, cfg.App.Name), slog.String(logx.FieldAppVersion, cfg.App.Version))
	slog.SetDefault(log)

	ctx = contextx.WithLogger(ctx, log)

	if err = run(ctx, cfg); err != nil {
		log.Error("application failed", logx.Error(err))
		os.Exit(1) //nolint:gocritic
	}

	log.Info("application stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	app, err := application.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close(context.WithoutCancel(ctx))

	return app.Run(ctx)
}
