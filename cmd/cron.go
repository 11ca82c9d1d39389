package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penwyp/ClawDeck/internal"
	"github.com/penwyp/ClawDeck/models"
	"github.com/penwyp/ClawDeck/output"
)

var cronCmd = &cobra.Command{
	Use:   "cron",
	Short: "List, trigger and inspect cron jobs",
}

var cronListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cron jobs with their last run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateOutputFormat(); err != nil {
			return err
		}

		return withApplication(cmd, connectRequired, func(ctx context.Context, app *internal.Application) error {
			if err := app.Poller().RefreshGroup(ctx, models.GroupCron); err != nil {
				return fmt.Errorf("failed to list cron jobs: %w", err)
			}
			if meta := app.Store().Meta(models.GroupCron); meta.HasError() {
				return fmt.Errorf("failed to list cron jobs: %s", meta.Error)
			}

			jobs := app.Store().CronJobs()
			out := cmd.OutOrStdout()
			if outputFormat == "json" {
				return output.WriteJSON(out, jobs)
			}
			fmt.Fprintln(out, newFormatter(app.Config()).FormatCronJobs(jobs))
			return nil
		})
	},
}

var cronRunCmd = &cobra.Command{
	Use:   "run <job-id>",
	Short: "Trigger a cron job now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, connectRequired, func(ctx context.Context, app *internal.Application) error {
			if err := app.Cron().RunJob(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to run %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Triggered %s\n", args[0])
			return nil
		})
	},
}

var cronRunsCmd = &cobra.Command{
	Use:   "runs <job-id>",
	Short: "Show the run history of a cron job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateOutputFormat(); err != nil {
			return err
		}

		return withApplication(cmd, connectRequired, func(ctx context.Context, app *internal.Application) error {
			loader := app.Cron().Runs()
			if _, err := loader.Load(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to load runs of %s: %w", args[0], err)
			}
			_, runs, _ := loader.Current()

			out := cmd.OutOrStdout()
			if outputFormat == "json" {
				return output.WriteJSON(out, runs)
			}
			fmt.Fprintln(out, newFormatter(app.Config()).FormatRuns(runs))
			return nil
		})
	},
}

func init() {
	addOutputFlags(cronListCmd)
	addOutputFlags(cronRunCmd)
	addOutputFlags(cronRunsCmd)

	cronCmd.AddCommand(cronListCmd, cronRunCmd, cronRunsCmd)
	rootCmd.AddCommand(cronCmd)
}
