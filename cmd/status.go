package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penwyp/ClawDeck/calculations"
	"github.com/penwyp/ClawDeck/internal"
	"github.com/penwyp/ClawDeck/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Fetch every group once and print the snapshot",
	Long: `Refresh sessions, agents, cron jobs, cost and usage once and print them.

Groups that fail keep their error in the report; the command exits non-zero
when any group failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateOutputFormat(); err != nil {
			return err
		}

		return withApplication(cmd, connectRequired, func(ctx context.Context, app *internal.Application) error {
			refreshErr := app.Poller().RefreshAll(ctx)

			recalc := calculations.NewCostRecalculator(app.Prices())
			report := output.NewStatusReport(app.Store(), recalc, app.Client().State().String())

			out := cmd.OutOrStdout()
			if outputFormat == "json" {
				if err := output.WriteJSON(out, report); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, newFormatter(app.Config()).FormatStatus(report))
			}

			if refreshErr != nil {
				return fmt.Errorf("refresh incomplete: %w", refreshErr)
			}
			return nil
		})
	},
}

func init() {
	addOutputFlags(statusCmd)
	rootCmd.AddCommand(statusCmd)
}
