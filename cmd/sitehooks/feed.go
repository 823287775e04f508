package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/sleeautomation/sitehooks/core"
	"github.com/sleeautomation/sitehooks/feed"
	"github.com/sleeautomation/sitehooks/logger"
)

// newFeedCmd creates the 'feed' subcommand, which prints the feed once.
func newFeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Fetch published posts and print the feed JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			pages, err := core.NewNotionClient(cfg).QueryPublished(ctx)
			if err != nil {
				return logger.Errorf("%s: %w", feed.FetchErrorMessage, err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(feed.Transform(pages, time.Now()))
		},
	}
}
