package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/ClawDeck/config"
	"github.com/penwyp/ClawDeck/internal"
)

var (
	runRefresh    time.Duration
	runTheme      string
	runCompact    bool
	runBackground bool
	runNoWatch    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interactive TUI monitor",
	Long: `Start ClawDeck in interactive TUI mode.

The poller starts once the gateway connection is up and stops when it drops.
Push events update sessions and cron jobs between polls.

Examples:
  clawdeck run                                   # Run with default settings
  clawdeck run --gateway-url ws://host:18789     # Custom gateway
  clawdeck run --refresh 500ms --theme light     # Custom render rate and theme
  clawdeck run --background --log-file deck.log  # Keep the cache warm without a UI`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitor(cmd, runBackground)
	},
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().DurationVarP(&runRefresh, "refresh", "r", 0, "UI refresh rate (e.g., 1s, 500ms)")
		c.Flags().StringVarP(&runTheme, "theme", "t", "", "UI theme (dark, light, high-contrast, auto)")
		c.Flags().BoolVar(&runCompact, "compact", false, "render inline instead of the alternate screen")
		c.Flags().BoolVar(&runNoWatch, "no-watch", false, "do not reload the config file on change")
	}
	runCmd.Flags().BoolVar(&runBackground, "background", false, "run without the TUI until interrupted")

	rootCmd.AddCommand(runCmd)
}

// runMonitor starts the long-running application
func runMonitor(cmd *cobra.Command, background bool) error {
	cfg, err := loadConfiguration(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := applyRunFlags(cfg); err != nil {
		return fmt.Errorf("failed to apply command flags: %w", err)
	}

	setupLogging(cfg, !background)

	opts := []internal.Option{}
	if background {
		opts = append(opts, internal.WithBackground())
	}
	if path := configFileInUse(); path != "" && !runNoWatch {
		opts = append(opts, internal.WithConfigPath(path))
	}

	app, err := internal.NewApplication(cfg, opts...)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Starting ClawDeck against %s...\n", cfg.Gateway.URL)
	}

	return app.Run()
}

func applyRunFlags(cfg *config.Config) error {
	if runRefresh > 0 {
		if runRefresh < 100*time.Millisecond {
			return fmt.Errorf("refresh interval too small: %v (minimum: 100ms)", runRefresh)
		}
		if runRefresh > time.Minute {
			return fmt.Errorf("refresh interval too large: %v (maximum: 1m)", runRefresh)
		}
		cfg.UI.RefreshRate = runRefresh
	}

	if runTheme != "" {
		theme := strings.ToLower(runTheme)
		if err := config.ValidateTheme(theme); err != nil {
			return err
		}
		cfg.UI.Theme = theme
	}

	if runCompact {
		cfg.UI.CompactMode = true
	}
	if noColor {
		cfg.UI.NoColor = true
	}

	return nil
}
