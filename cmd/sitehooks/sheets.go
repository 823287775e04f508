package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/sleeautomation/sitehooks/logger"
	"github.com/sleeautomation/sitehooks/sheets"
)

// newProvisionCmd creates the 'provision' subcommand. It runs the
// find-or-create once so deployments can pin the result.
func newProvisionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Find or create the leads spreadsheet and print its id",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, deps, err := loadIntake(ctx)
			if err != nil {
				return err
			}
			h, err := deps.Store.Resolve(ctx)
			if err != nil {
				return logger.Errorf("failed to provision spreadsheet: %w", err)
			}
			logger.User("Spreadsheet ID: %s", h.SpreadsheetID)
			logger.User("Spreadsheet URL: %s", h.URL)
			logger.User("Sheet: %s", h.SheetTitle)
			logger.User("Pin it with LEADS_SPREADSHEET_ID=%s", h.SpreadsheetID)
			return nil
		},
	}
}

// newSheetURLCmd creates the 'sheet-url' subcommand. Unlike provision it
// never creates anything.
func newSheetURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheet-url",
		Short: "Print the leads spreadsheet URL if it exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, deps, err := loadIntake(ctx)
			if err != nil {
				return err
			}
			h, err := deps.Store.Lookup(ctx)
			if errors.Is(err, sheets.ErrNotFound) {
				logger.User("Spreadsheet not found.")
				return nil
			}
			if err != nil {
				return logger.Errorf("failed to look up spreadsheet: %w", err)
			}
			logger.User("Spreadsheet URL: %s", h.URL)
			return nil
		},
	}
}
