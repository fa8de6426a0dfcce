package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	apperrors "tradestat/internal/errors"
	"tradestat/internal/store"
)

func addHistoryCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newHistoryCmd(app))
}

func newHistoryCmd(app *App) *cobra.Command {
	var (
		limit  int
		source string
		since  string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved runs",
		Long:  "List runs saved with 'analyze --save', newest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			filter := store.RunFilter{Source: source, Limit: limit}
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date %q: %w", since, err)
				}
				filter.Since = t
			}

			st, err := app.Store()
			if err != nil {
				return err
			}
			runs, err := st.ListRuns(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(runs)
			}
			if len(runs) == 0 {
				output.Dim("No saved runs")
				return nil
			}

			table := NewTable(output, "ID", "PUBLISHED", "SOURCE", "TRADES", "EXCLUDED", "NET PIPS", "NET VPIPS")
			for _, r := range runs {
				table.AddRow(
					r.ID.String()[:8],
					r.PublishedAt.Local().Format("2006-01-02 15:04"),
					TruncateString(r.Source, 24),
					fmt.Sprintf("%d", r.TradeCount),
					fmt.Sprintf("%d", r.FaultCount),
					output.Signed(r.NetPips, FormatPips(r.NetPips)),
					output.Signed(r.NetVPips, FormatPips(r.NetVPips)),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")
	cmd.Flags().StringVar(&source, "source", "", "only runs of this source file")
	cmd.Flags().StringVar(&since, "since", "", "only runs published on or after this date (YYYY-MM-DD)")

	cmd.AddCommand(newHistoryShowCmd(app))
	cmd.AddCommand(newHistoryPruneCmd(app))
	return cmd
}

func newHistoryShowCmd(app *App) *cobra.Command {
	var unit string

	cmd := &cobra.Command{
		Use:   "show <run-id|latest>",
		Short: "Show a saved report",
		Long:  "Show the report of a saved run. The run ID may be abbreviated to a unique prefix.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			u, ok := ParseUnit(unit)
			if !ok {
				return fmt.Errorf("unknown unit %q (use pips or vpips)", unit)
			}

			st, err := app.Store()
			if err != nil {
				return err
			}
			run, err := findRun(cmd.Context(), st, args[0])
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(run)
			}

			r := &reportRenderer{
				output:     output,
				unit:       u,
				dateFormat: app.Config.UI.DateFormat,
				barHours:   run.Report.Snapshot.Options.BarHours,
			}
			output.Bold("Trade Statistics: %s", run.Source)
			output.Dim("Run %s  #%d  %s", run.ID, run.Sequence, run.PublishedAt.Local().Format("2006-01-02 15:04:05"))
			output.Println()
			r.render(run.Report)
			return nil
		},
	}

	cmd.Flags().StringVar(&unit, "unit", "pips", "unit for tables (pips, vpips)")
	return cmd
}

func newHistoryPruneCmd(app *App) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if keep < 1 {
				return fmt.Errorf("--keep must be at least 1")
			}

			st, err := app.Store()
			if err != nil {
				return err
			}
			removed, err := st.Prune(cmd.Context(), keep)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]int{"removed": removed, "kept": keep})
			}
			output.Success("✓ Removed %d runs", removed)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 10, "number of runs to keep")
	return cmd
}

// findRun resolves "latest", a full run ID or a unique ID prefix.
func findRun(ctx context.Context, st store.RunStore, ref string) (*store.Run, error) {
	if ref == "latest" {
		return st.LatestRun(ctx)
	}
	if id, err := uuid.Parse(ref); err == nil {
		return st.GetRun(ctx, id)
	}

	runs, err := st.ListRuns(ctx, store.RunFilter{})
	if err != nil {
		return nil, err
	}

	var matches []uuid.UUID
	for _, r := range runs {
		if strings.HasPrefix(r.ID.String(), strings.ToLower(ref)) {
			matches = append(matches, r.ID)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSnapshotNotFound, ref)
	case 1:
		return st.GetRun(ctx, matches[0])
	default:
		return nil, fmt.Errorf("run ID prefix %q is ambiguous (%d matches)", ref, len(matches))
	}
}
