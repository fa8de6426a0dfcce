package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"tradestat/internal/analytics"
	"tradestat/internal/engine"
	"tradestat/internal/ingest"
	"tradestat/internal/notify"
	"tradestat/internal/store"
)

// analyzeResult is the JSON shape of the analyze command.
type analyzeResult struct {
	Source      string              `json:"source"`
	Rows        int                 `json:"rows"`
	LoadFaults  []string            `json:"load_faults"`
	Saved       bool                `json:"saved"`
	Publication *engine.Publication `json:"publication"`
}

func newAnalyzeCmd(app *App) *cobra.Command {
	var (
		save            bool
		threshold       float64
		startGate       float64
		noGate          bool
		minStreak       int
		stabilityTarget float64
		unit            string
	)

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Compute statistics for a trade file",
		Long: `Load a semicolon-separated trade file and compute the full report.

Columns: pair;type;dateEN;dateEX;priceEN;priceTP;priceSL;result
Rows that cannot be parsed are listed and left out of the computation.`,
		Example: `  tradestat analyze trades.csv
  tradestat analyze trades.csv --threshold 100 --unit vpips
  tradestat analyze trades.csv --save --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path := args[0]

			u, ok := ParseUnit(unit)
			if !ok {
				return fmt.Errorf("unknown unit %q (use pips or vpips)", unit)
			}

			opts := app.Config.AnalyticsOptions()
			flags := cmd.Flags()
			if flags.Changed("threshold") {
				opts.Drawdown.TriggerThreshold = threshold
			}
			if flags.Changed("start-gate") {
				gate := startGate
				opts.Drawdown.StartGate = &gate
			}
			if noGate {
				opts.Drawdown.StartGate = nil
			}
			if flags.Changed("min-streak") {
				opts.MinStreakLength = minStreak
			}
			if flags.Changed("stability-target") {
				opts.StabilityTarget = stabilityTarget
			}
			if opts.Drawdown.TriggerThreshold < 0 {
				return fmt.Errorf("threshold must be non-negative")
			}

			loaded, err := ingest.LoadFile(path)
			if err != nil {
				return err
			}
			for _, f := range loaded.Faults {
				app.Logger.Warn().Int("row", f.Row).Str("field", f.Field).Err(f.Err).Msg("Row skipped")
			}

			eng := engine.New(engine.Config{Options: opts}, app.Logger)
			defer eng.Close()

			if save {
				st, err := app.Store()
				if err != nil {
					return err
				}
				eng.RegisterConsumer(store.NewRecorder(st, filepath.Base(path), app.Config.Store.KeepRuns))
			}

			if mn := notify.NewMultiNotifier(app.Config.Notify, app.Logger); mn.Enabled() {
				eng.RegisterConsumer(mn)
			}

			pub, published := eng.Recompute(cmd.Context(), loaded.Trades)
			if !published {
				return fmt.Errorf("computation was superseded")
			}
			m := eng.Metrics()
			app.Logger.Debug().
				Uint64("runs", m.Runs).
				Uint64("published", m.Published).
				Uint64("superseded", m.Superseded).
				Msg("Engine metrics")

			if output.IsJSON() {
				res := analyzeResult{
					Source:      path,
					Rows:        loaded.Rows,
					LoadFaults:  make([]string, 0, len(loaded.Faults)),
					Saved:       save,
					Publication: pub,
				}
				for _, f := range loaded.Faults {
					res.LoadFaults = append(res.LoadFaults, f.Error())
				}
				return output.JSON(res)
			}

			for _, f := range loaded.Faults {
				output.Warning("⚠ %s", f.Error())
			}
			if len(loaded.Faults) > 0 {
				output.Println()
			}

			r := &reportRenderer{
				output:     output,
				unit:       u,
				dateFormat: app.Config.UI.DateFormat,
				barHours:   opts.BarHours,
			}
			r.header(path, pub)
			r.render(pub.Report)

			if save {
				output.Println()
				output.Success("✓ Saved run %s", pub.RunID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "save the run to the history")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "drawdown trigger threshold")
	cmd.Flags().Float64Var(&startGate, "start-gate", 0, "cumulative value that must be reached before drawdowns are tracked")
	cmd.Flags().BoolVar(&noGate, "no-gate", false, "track drawdowns from the first trade")
	cmd.Flags().IntVar(&minStreak, "min-streak", analytics.DefaultMinStreakLength, "shortest run counted as a streak")
	cmd.Flags().Float64Var(&stabilityTarget, "stability-target", 0, "monthly net counted as a stable month")
	cmd.Flags().StringVar(&unit, "unit", "pips", "unit for tables (pips, vpips)")

	return cmd
}
