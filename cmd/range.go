package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penwyp/ClawDeck/cache"
	"github.com/penwyp/ClawDeck/internal"
	"github.com/penwyp/ClawDeck/models"
	"github.com/penwyp/ClawDeck/output"
)

var (
	rangeStart string
	rangeEnd   string
)

var rangeCmd = &cobra.Command{
	Use:   "range",
	Short: "Show or change the saved analytics range",
}

var rangeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved analytics range",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateOutputFormat(); err != nil {
			return err
		}

		return withApplication(cmd, connectNone, func(ctx context.Context, app *internal.Application) error {
			tr := cache.NewPreferences(app.Cache()).Load()

			out := cmd.OutOrStdout()
			if outputFormat == "json" {
				return output.WriteJSON(out, tr)
			}
			fmt.Fprintln(out, newFormatter(app.Config()).FormatRange(tr))
			return nil
		})
	},
}

var rangeApplyCmd = &cobra.Command{
	Use:   "apply <today|7d|30d|90d|custom>",
	Short: "Save the analytics range",
	Long: `Save the analytics range used by the dashboard and the cost command.

Examples:
  clawdeck range apply 7d
  clawdeck range apply custom --start 2026-01-01 --end 2026-01-31`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tr, err := rangeFromArgs(args[0], rangeStart, rangeEnd)
		if err != nil {
			return err
		}

		return withApplication(cmd, connectNone, func(ctx context.Context, app *internal.Application) error {
			if !app.Persistent() && !app.Config().Cache.InMemory {
				return fmt.Errorf("persistent cache unavailable, range not saved")
			}
			if err := cache.NewPreferences(app.Cache()).Apply(tr); err != nil {
				return fmt.Errorf("failed to save range: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved range %s\n", newFormatter(app.Config()).FormatRange(tr))
			return nil
		})
	},
}

func init() {
	rangeApplyCmd.Flags().StringVar(&rangeStart, "start", "", "custom range start date (YYYY-MM-DD)")
	rangeApplyCmd.Flags().StringVar(&rangeEnd, "end", "", "custom range end date (YYYY-MM-DD)")
	addOutputFlags(rangeShowCmd)
	addOutputFlags(rangeApplyCmd)

	rangeCmd.AddCommand(rangeShowCmd, rangeApplyCmd)
	rootCmd.AddCommand(rangeCmd)
}

// rangeFromArgs builds a range from a preset name and optional custom bounds
func rangeFromArgs(preset, start, end string) (models.TimeRange, error) {
	if preset != string(models.RangeCustom) {
		if start != "" || end != "" {
			return models.TimeRange{}, fmt.Errorf("--start/--end require the custom preset")
		}
		return parsePreset(preset)
	}

	tr := models.TimeRange{
		Preset: models.RangeCustom,
		Custom: models.CustomRange{Start: start, End: end},
	}
	if err := tr.Custom.Validate(); err != nil {
		return models.TimeRange{}, fmt.Errorf("invalid custom range: %w", err)
	}
	return tr, nil
}
