package main

import (
	"github.com/spf13/cobra"

	"github.com/sleeautomation/sitehooks/logger"
	"github.com/sleeautomation/sitehooks/mailer"
)

// newTestEmailCmd creates the 'test-email' subcommand.
func newTestEmailCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "test-email <address>",
		Short: "Send the resources email to an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, deps, err := loadIntake(ctx)
			if err != nil {
				return err
			}
			msg, err := mailer.ResourcesEmail(cfg.Intake, name, args[0])
			if err != nil {
				return logger.Errorf("failed to render email: %w", err)
			}
			if err := deps.Sender.Send(ctx, msg); err != nil {
				return logger.Errorf("failed to send test email: %w", err)
			}
			logger.User("Test email sent to: %s", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Test User", "Recipient name used in the greeting")
	return cmd
}
