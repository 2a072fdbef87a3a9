package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fareglitch/internal/application"
	"fareglitch/internal/config"
	"fareglitch/pkg/contextx"
	"fareglitch/pkg/logx"
)

var Version = "dev" //nolint:gochecknoglobals

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := &cobra.Command{
		Use:           "dealctl",
		Short:         "Operate the fare anomaly pipeline",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(enqueueCmd())
	rootCmd.AddCommand(feedCmd())
	rootCmd.AddCommand(dealCmd())
	rootCmd.AddCommand(subscriberCmd())
	rootCmd.AddCommand(budgetCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1) //nolint:gocritic
	}
}

// withApp wires the application for one command and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *application.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	ctx := contextx.WithLogger(cmd.Context(), logx.NewLogger(os.Stderr, cfg.App.LogLevel, cfg.App.LogFormat))

	app, err := application.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close(context.WithoutCancel(ctx))

	return fn(ctx, app)
}
