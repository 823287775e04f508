package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sleeautomation/sitehooks/config"
	"github.com/sleeautomation/sitehooks/core"
	"github.com/sleeautomation/sitehooks/logger"
)

var (
	exit       = os.Exit
	configPath string
	debug      bool
)

// NewRootCmd creates the root 'sitehooks' command with persistent flags and subcommands.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "sitehooks",
		Short:        "Blog feed and lead intake webhooks for sleeautomation.com",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "Path to sitehooks config (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logs")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if debug {
			logger.SetMode("debug")
		}
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newFeedCmd(),
		newProvisionCmd(),
		newSheetURLCmd(),
		newTestEmailCmd(),
	)
	return rootCmd
}

// loadConfig reads --config, applies the environment and resolves secrets.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, logger.Errorf("failed to load config %s: %w", configPath, err)
	}
	if strings.EqualFold(cfg.Log.Level, "debug") && logger.Mode() != "debug" {
		logger.SetMode("debug")
	}
	if err := core.ResolveSecrets(ctx, cfg); err != nil {
		return nil, logger.Errorf("failed to resolve secrets: %w", err)
	}
	return cfg, nil
}

// loadIntake builds the Google-backed intake pieces for commands that touch
// the spreadsheet or send mail.
func loadIntake(ctx context.Context) (*config.Config, *core.Intake, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	deps, err := core.InitializeIntake(ctx, cfg)
	if err != nil {
		return nil, nil, logger.Errorf("failed to initialize Google clients: %w", err)
	}
	return cfg, deps, nil
}
