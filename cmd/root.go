package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/ClawDeck/config"
	"github.com/penwyp/ClawDeck/internal"
	"github.com/penwyp/ClawDeck/logging"
	"github.com/penwyp/ClawDeck/output"
)

var (
	cfgFile  string
	logLevel string
	logFile  string
	noColor  bool
	debug    bool
	verbose  bool
	// Gateway and cache flags
	gatewayURL    string
	gatewayToken  string
	cachePath     string
	pricingSource string
	offline       bool
	// Output format for one-shot commands
	outputFormat = "table"
	timeout      = 30 * time.Second
)

var rootCmd = &cobra.Command{
	Use:   "clawdeck",
	Short: "Gateway status deck",
	Long: `clawdeck is a terminal dashboard for an agent gateway.

It keeps sessions, agents, cron jobs and cost figures in sync with the gateway
through tiered polling and push events, caches the heavy cost queries on disk
and repairs costs the gateway could not price.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitor(cmd, false)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	config.Version = Version
	rootCmd.Version = Version
	return rootCmd.Execute()
}

func init() {
	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Global flags, names match config.FlagSource
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default searches ./clawdeck.yaml, ~/.config/clawdeck/config.yaml)")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "write logs to this file")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")
	pf.BoolVar(&debug, "debug", false, "enable debug mode")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&gatewayURL, "gateway-url", "", "gateway WebSocket URL (ws:// or wss://)")
	pf.StringVar(&gatewayToken, "token", "", "gateway auth token")
	pf.StringVar(&cachePath, "cache-path", "", "persistent cache directory")
	pf.StringVar(&pricingSource, "pricing-source", "", "pricing source (default, litellm)")
	pf.BoolVar(&offline, "offline", false, "use cached pricing only")
}

// configFileInUse returns the --config file or the first default path that exists
func configFileInUse() string {
	if cfgFile != "" {
		return cfgFile
	}
	for _, path := range config.ConfigPaths() {
		if _, err := os.Stat(os.ExpandEnv(path)); err == nil {
			return path
		}
	}
	return ""
}

// loadConfiguration merges defaults, config files, environment and flags
func loadConfiguration(cmd *cobra.Command) (*config.Config, error) {
	loader := config.NewLoader()

	if path := configFileInUse(); path != "" {
		loader.AddSource(config.NewFileSource(path))
	}
	loader.AddSource(config.NewEnvSource("CLAWDECK"))
	loader.AddSource(config.NewFlagSource(cmd.Flags()))
	loader.AddValidator(config.NewStandardValidator())

	cfg, err := loader.LoadWithDefaults()
	if err != nil {
		return nil, err
	}

	if debug {
		cfg.Debug.Enabled = true
		cfg.App.LogLevel = "debug"
	}
	return cfg, nil
}

// setupLogging routes logs to the configured file, to stderr for commands, or
// nowhere while the TUI owns the terminal
func setupLogging(cfg *config.Config, interactive bool) {
	if cfg.App.LogFile != "" {
		if err := logging.InitGlobalLogger(cfg.App.LogLevel, os.ExpandEnv(cfg.App.LogFile)); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file, logging to stderr: %v\n", err)
		}
		return
	}

	var w io.Writer = os.Stderr
	if interactive {
		w = io.Discard
	}
	level := cfg.App.LogLevel
	if !interactive && !verbose && !cfg.Debug.Enabled {
		// keep one-shot output clean unless asked
		level = "warn"
	}
	logging.SetGlobalLogger(logging.NewLoggerWithWriter(level, w))
}

// connectMode says how a one-shot command needs the gateway
type connectMode int

const (
	connectNone connectMode = iota
	connectOptional
	connectRequired
)

// withApplication builds a one-shot application, connects it per mode and runs fn
func withApplication(cmd *cobra.Command, mode connectMode, fn func(ctx context.Context, app *internal.Application) error) error {
	cfg, err := loadConfiguration(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setupLogging(cfg, false)

	app, err := internal.NewApplication(cfg, internal.OneShot())
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logging.LogWarnf("close: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	switch mode {
	case connectRequired:
		if err := app.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to gateway: %w", err)
		}
	case connectOptional:
		if err := app.Connect(ctx); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Gateway unavailable, showing cached data: %v\n", err)
		}
	}
	return fn(ctx, app)
}

// newFormatter builds the console formatter from the display settings
func newFormatter(cfg *config.Config) *output.ConsoleFormatter {
	return output.NewConsoleFormatter(cfg.App.Timezone, cfg.UI.DateFormat, cfg.UI.TimeFormat)
}

// addOutputFlags registers -o and --timeout on one-shot commands
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall timeout")
}

func validateOutputFormat() error {
	switch outputFormat {
	case "table", "json":
		return nil
	default:
		return fmt.Errorf("invalid output format: %s (valid options: table, json)", outputFormat)
	}
}
