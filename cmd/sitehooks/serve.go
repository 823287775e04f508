package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	sitehttp "github.com/sleeautomation/sitehooks/http"
	"github.com/sleeautomation/sitehooks/logger"
	"github.com/sleeautomation/sitehooks/telemetry"
)

// newServeCmd creates the 'serve' subcommand.
func newServeCmd() *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the feed and intake handlers locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			if host != "" {
				cfg.HTTP.Host = host
			}
			if port != 0 {
				cfg.HTTP.Port = port
			}

			shutdown, err := telemetry.Init(ctx, cfg)
			if err != nil {
				return logger.Errorf("failed to initialize tracing: %w", err)
			}
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Warn("tracing shutdown: %v", err)
				}
			}()
			return sitehttp.StartServer(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Listen host (overrides config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides config and PORT)")
	return cmd
}
