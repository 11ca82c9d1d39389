package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/ClawDeck/analytics"
	"github.com/penwyp/ClawDeck/internal"
	"github.com/penwyp/ClawDeck/models"
	"github.com/penwyp/ClawDeck/output"
)

var (
	costRange   string
	costStart   string
	costEnd     string
	costRefresh bool
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Show the cost summary for a time range",
	Long: `Show cost totals, the per-model share and the daily series.

Figures come from the persistent cache when they are younger than the cache
TTL; otherwise they are refetched. When the gateway is unreachable the cached
figures are shown and marked stale. Costs the gateway could not price are
recalculated from the local price table.

Examples:
  clawdeck cost                                   # Saved range (default 30d)
  clawdeck cost --range 7d                        # Last 7 days, not saved
  clawdeck cost --start 2026-01-01 --end 2026-01-31
  clawdeck cost --refresh -o json                 # Ignore the cache`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateOutputFormat(); err != nil {
			return err
		}
		tr, err := costTimeRange()
		if err != nil {
			return err
		}

		return withApplication(cmd, connectOptional, func(ctx context.Context, app *internal.Application) error {
			cfg := app.Config()
			opts := []analytics.PageOption{
				analytics.WithTTL(cfg.Cache.TTL),
				analytics.WithUsageLimit(cfg.Polling.UsageLimit),
			}
			if tr != nil {
				opts = append(opts, analytics.WithRange(*tr))
			}

			page := analytics.NewPage(app.Cache(), app.Client(), app.Prices(), opts...)
			page.Mount(ctx)
			page.Wait()
			if costRefresh {
				_ = page.Refresh(ctx)
			}

			v := page.View()
			if !v.Loaded() {
				if v.Err != nil {
					return fmt.Errorf("no cost data: %w", v.Err)
				}
				return fmt.Errorf("no cost data")
			}

			if v.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: showing cached figures, refresh failed: %v\n", v.Err)
			}

			report := output.CostReport{
				Days:       v.Days,
				Summary:    v.Summary,
				Usage:      v.Usage,
				UpdatedAt:  v.UpdatedAt,
				Stale:      v.Err != nil || time.Since(v.UpdatedAt) > cfg.Cache.TTL,
				Incomplete: v.Incomplete(),
			}

			out := cmd.OutOrStdout()
			if outputFormat == "json" {
				return output.WriteJSON(out, report)
			}
			fmt.Fprintln(out, newFormatter(cfg).FormatCost(report))
			return nil
		})
	},
}

func init() {
	costCmd.Flags().StringVar(&costRange, "range", "", "range preset (today, 7d, 30d, 90d); default is the saved range")
	costCmd.Flags().StringVar(&costStart, "start", "", "custom range start date (YYYY-MM-DD)")
	costCmd.Flags().StringVar(&costEnd, "end", "", "custom range end date (YYYY-MM-DD)")
	costCmd.Flags().BoolVar(&costRefresh, "refresh", false, "refetch even when the cache is fresh")
	addOutputFlags(costCmd)

	rootCmd.AddCommand(costCmd)
}

// costTimeRange builds the range from flags, or nil to use the saved one
func costTimeRange() (*models.TimeRange, error) {
	if costStart != "" || costEnd != "" {
		if costRange != "" && costRange != string(models.RangeCustom) {
			return nil, fmt.Errorf("--range %s cannot be combined with --start/--end", costRange)
		}
		tr := models.TimeRange{
			Preset: models.RangeCustom,
			Custom: models.CustomRange{Start: costStart, End: costEnd},
		}
		if err := tr.Custom.Validate(); err != nil {
			return nil, fmt.Errorf("invalid custom range: %w", err)
		}
		return &tr, nil
	}
	if costRange == "" {
		return nil, nil
	}

	tr, err := parsePreset(costRange)
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

// parsePreset accepts a non-custom preset name
func parsePreset(name string) (models.TimeRange, error) {
	preset := models.RangePreset(name)
	if !preset.Valid() || preset == models.RangeCustom {
		return models.TimeRange{}, fmt.Errorf("invalid range: %s (valid options: today, 7d, 30d, 90d)", name)
	}
	return models.TimeRange{Preset: preset}, nil
}
