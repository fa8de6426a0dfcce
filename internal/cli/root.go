// Package cli provides the command-line interface for trade statistics.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tradestat/internal/config"
	"tradestat/internal/logging"
	"tradestat/internal/store"
)

// Version information, overridden at build time.
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	// Out receives command output; nil means stdout.
	Out io.Writer

	store store.RunStore
}

// NewApp creates the application.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger}
}

// Execute runs the command line args and releases the run store afterwards,
// whether or not the command succeeded.
func (a *App) Execute(ctx context.Context, args []string) error {
	defer func() {
		if err := a.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close run store")
		}
	}()

	rootCmd := NewRootCmd(a)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// Store opens the run history on first use.
func (a *App) Store() (store.RunStore, error) {
	if a.store != nil {
		return a.store, nil
	}

	path := a.Config.Store.Path
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug().Str("path", path).Msg("Run store opened")
	a.store = s
	return s, nil
}

// Close releases the run history if it was opened.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tradestat",
		Short: "Trade performance statistics",
		Long: `tradestat computes performance statistics for a record of closed trades.

Every metric is reported in pips and in value-weighted pips, for all trades
and separately for long and short positions. Runs can be saved to a local
history and inspected later.

Use 'tradestat analyze <file>' to compute a report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("config") {
				dir, _ := cmd.Flags().GetString("config")
				loaded, err := config.Load(dir)
				if err != nil {
					return err
				}
				app.Config = loaded
				app.Logger = logging.NewLoggerWithConfig(loaded.LogConfig())
			}

			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}

			if !app.Config.UI.ColorEnabled {
				_ = cmd.Flags().Set("no-color", "true")
			}
			return nil
		},
	}
	if app.Out != nil {
		rootCmd.SetOut(app.Out)
		rootCmd.SetErr(app.Out)
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/tradestat)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	addCoreCommands(rootCmd, app)
	rootCmd.AddCommand(newAnalyzeCmd(app))
	addHistoryCommands(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("tradestat v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate the application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path := config.Path(app.Config.Dir)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Println(path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	a := cfg.Analytics
	output.Bold("Analytics")
	output.Printf("  Trigger threshold: %g\n", a.TriggerThreshold)
	if a.StartGateEnabled {
		output.Printf("  Start gate:        %g\n", a.StartGate)
	} else {
		output.Printf("  Start gate:        off\n")
	}
	output.Printf("  Min streak:        %d\n", a.MinStreakLength)
	output.Printf("  Stability target:  %g\n", a.StabilityTarget)
	output.Printf("  Bar hours:         %g\n", a.BarHours)
	output.Println()

	output.Bold("Instruments")
	table := NewTable(output, "PAIR", "MULTIPLIER")
	insts := cfg.AnalyticsOptions().Instruments
	for _, pair := range insts.Pairs() {
		table.AddRow(pair, fmt.Sprintf("%g", insts.Multiplier(pair)))
	}
	table.Render()
	output.Println()

	output.Bold("Store")
	output.Printf("  Path:              %s\n", cfg.Store.Path)
	output.Printf("  Keep runs:         %d\n", cfg.Store.KeepRuns)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:             %s\n", cfg.Logging.Level)
	output.Printf("  File:              %v\n", cfg.Logging.File)
}
