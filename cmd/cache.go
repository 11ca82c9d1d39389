package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penwyp/ClawDeck/internal"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the persistent cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached query and saved preference",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, connectNone, func(ctx context.Context, app *internal.Application) error {
			if !app.Persistent() && !app.Config().Cache.InMemory {
				return fmt.Errorf("persistent cache unavailable (is the dashboard running?)")
			}
			n, err := app.Cache().Clear()
			if err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached entries\n", n)
			return nil
		})
	},
}

func init() {
	cacheClearCmd.Flags().DurationVar(&timeout, "timeout", timeout, "overall timeout")
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
