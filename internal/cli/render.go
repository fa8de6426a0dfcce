package cli

import (
	"fmt"
	"sort"

	"tradestat/internal/analytics"
	"tradestat/internal/engine"
	"tradestat/internal/models"
	"tradestat/pkg/utils"
)

// reportRenderer prints a report as text tables in one unit system.
type reportRenderer struct {
	output     *Output
	unit       models.Unit
	dateFormat string
	barHours   float64
}

func (r *reportRenderer) header(source string, pub *engine.Publication) {
	r.output.Bold("Trade Statistics: %s", source)
	r.output.Dim("Run %s  #%d  %s", pub.RunID, pub.Sequence, pub.PublishedAt.Format("2006-01-02 15:04:05"))
	r.output.Println()
}

func (r *reportRenderer) render(rep analytics.Report) {
	snap := rep.Snapshot
	if snap.Empty {
		r.output.Warning("No valid trades (%d input, %d excluded)", rep.InputCount, len(rep.Faults))
		r.faults(rep.Faults)
		return
	}

	r.summary(rep)
	r.categories(snap.General)
	r.months(snap.Periods)
	r.instruments(snap.Instruments())
	r.drawdowns(snap.Drawdown.Get(r.unit))
	r.streaks(snap.Streaks)
	r.faults(rep.Faults)
}

func (r *reportRenderer) pips(v float64) string {
	return r.output.Signed(v, FormatPips(v))
}

func (r *reportRenderer) summary(rep analytics.Report) {
	snap := rep.Snapshot
	all := snap.General.All
	span := snap.Periods.Stats.Span
	o := r.output

	o.Bold("Summary")
	o.Printf("  Trades:        %d of %d (%d excluded)\n", snap.TradeCount, rep.InputCount, len(rep.Faults))
	o.Printf("  Period:        %s to %s (%d months)\n",
		FormatDate(span.Start, r.dateFormat), FormatDate(span.End, r.dateFormat), span.CalendarMonths)
	o.Printf("  Net:           %s pips, %s vpips\n", r.pips(all.Pips.Net), r.pips(all.ValuePips.Net))
	o.Printf("  Win rate:      %s\n", FormatPercent(all.Pips.WinRate))
	o.Printf("  Profit factor: %s\n", FormatRatio(all.Get(r.unit).ProfitFactor))
	o.Printf("  Max drawdown:  %s %s\n", utils.FormatNumber(all.Get(r.unit).MaxDrawdown, 1), UnitLabel(r.unit))
	o.Println()
}

func (r *reportRenderer) categories(c analytics.Categories) {
	all, long, short := c.All.Get(r.unit), c.Long.Get(r.unit), c.Short.Get(r.unit)
	num := func(v float64) string { return utils.FormatNumber(v, 1) }

	r.output.Bold("Performance (%s)", UnitLabel(r.unit))
	table := NewTable(r.output, "METRIC", "ALL", "LONG", "SHORT")
	row := func(name string, f func(analytics.CategoryStats) string) {
		table.AddRow(name, f(all), f(long), f(short))
	}

	row("Trades", func(s analytics.CategoryStats) string { return fmt.Sprintf("%d", s.Trades) })
	row("Wins / Losses", func(s analytics.CategoryStats) string { return fmt.Sprintf("%d / %d", s.Wins, s.Losses) })
	row("Win rate", func(s analytics.CategoryStats) string { return FormatPercent(s.WinRate) })
	row("Net", func(s analytics.CategoryStats) string { return r.pips(s.Net) })
	row("Gross profit", func(s analytics.CategoryStats) string { return num(s.GrossProfit) })
	row("Gross loss", func(s analytics.CategoryStats) string { return num(s.GrossLoss) })
	row("Average", func(s analytics.CategoryStats) string { return FormatPips(s.Average) })
	row("Median", func(s analytics.CategoryStats) string { return FormatPips(s.Median) })
	row("Std dev", func(s analytics.CategoryStats) string { return num(s.StdDev) })
	row("Avg win", func(s analytics.CategoryStats) string { return num(s.AvgWin) })
	row("Avg loss", func(s analytics.CategoryStats) string { return num(s.AvgLoss) })
	row("Max win", func(s analytics.CategoryStats) string { return num(s.MaxWin) })
	row("Max loss", func(s analytics.CategoryStats) string { return num(s.MaxLoss) })
	row("Profit factor", func(s analytics.CategoryStats) string { return FormatRatio(s.ProfitFactor) })
	row("Avg R:R", func(s analytics.CategoryStats) string { return FormatRatio(s.AvgRiskReward) })
	row("Expectancy", func(s analytics.CategoryStats) string { return FormatPips(s.Expectancy) })
	row("Avg hold", func(s analytics.CategoryStats) string { return FormatHold(s.AvgBarsHeld, r.barHours) })
	row("Max hold", func(s analytics.CategoryStats) string { return FormatHold(float64(s.MaxBarsHeld), r.barHours) })
	row("Max drawdown", func(s analytics.CategoryStats) string { return num(s.MaxDrawdown) })
	row("Recovery factor", func(s analytics.CategoryStats) string { return FormatRatio(s.RecoveryFactor) })
	row("Trades / month", func(s analytics.CategoryStats) string { return utils.FormatNumber(s.TradesPerMonth, 2) })
	row("Net / month", func(s analytics.CategoryStats) string { return FormatPips(s.NetPerMonth) })

	table.Render()
	r.output.Println()
}

func (r *reportRenderer) months(p analytics.PeriodResult) {
	r.output.Bold("Monthly (%s)", UnitLabel(r.unit))
	table := NewTable(r.output, "MONTH", "TRADES", "NET", "YTD")
	for _, m := range p.Months() {
		net := m.Net.Get(r.unit)
		table.AddRow(m.Key, fmt.Sprintf("%d", m.Count), r.pips(net), FormatPips(m.YTD.Get(r.unit)))
	}
	table.Render()

	stats := p.Stats
	r.output.Printf("  Total %s  avg/month %s  std dev %s  stable months %s (target %g)\n",
		r.pips(p.Total.Get(r.unit)),
		FormatPips(stats.AvgMonthly.Get(r.unit)),
		utils.FormatNumber(stats.StdDev.Get(r.unit), 1),
		FormatPercent(stats.Stability.Get(r.unit)),
		stats.Target)
	if stats.Best != nil && stats.Worst != nil {
		r.output.Printf("  Best %s (%s vpips)  worst %s (%s vpips)\n",
			stats.Best.Key, FormatPips(stats.Best.Net.ValuePips),
			stats.Worst.Key, FormatPips(stats.Worst.Net.ValuePips))
	}
	r.output.Println()
}

func (r *reportRenderer) instruments(buckets []analytics.InstrumentBucket) {
	r.output.Bold("Instruments (%s)", UnitLabel(r.unit))
	table := NewTable(r.output, "PAIR", "TRADES", "WIN %", "NET", "AVG")
	for _, b := range buckets {
		table.AddRow(
			b.Pair,
			fmt.Sprintf("%d", b.Count),
			FormatPercent(b.WinRate),
			r.pips(b.Net.Get(r.unit)),
			FormatPips(b.Avg.Get(r.unit)),
		)
	}
	table.Render()
	r.output.Println()
}

func (r *reportRenderer) drawdowns(dd analytics.DrawdownResult) {
	r.output.Bold("Drawdowns (%s)", UnitLabel(r.unit))
	if dd.Count == 0 {
		r.output.Dim("  none")
		r.output.Println()
		return
	}

	table := NewTable(r.output, "PEAK", "TROUGH", "RECOVERED", "DEPTH", "%", "RECOVERY")
	for _, ev := range dd.Events {
		recovered, recovery := "-", "open"
		if ev.Recovered() {
			recovered = FormatDate(ev.Recovery.Date, r.dateFormat)
			recovery = FormatHold(*ev.RecoveryBars, r.barHours)
		}
		table.AddRow(
			FormatDate(ev.Peak.Date, r.dateFormat),
			FormatDate(ev.Trough.Date, r.dateFormat),
			recovered,
			utils.FormatNumber(ev.Absolute, 1),
			FormatPercent(ev.Percent),
			recovery,
		)
	}
	table.Render()
	r.output.Printf("  %d events, %d recovered  max %s  avg %s  avg recovery %s\n",
		dd.Count, dd.Recovered,
		utils.FormatNumber(dd.MaxAbsolute, 1),
		utils.FormatNumber(dd.AvgAbsolute, 1),
		FormatHold(dd.AvgRecoveryBars, r.barHours))
	r.output.Println()
}

func (r *reportRenderer) streaks(s analytics.StreakResult) {
	r.output.Bold("Streaks (min length %d)", s.MinLength)
	r.output.Printf("  Longest win %d  longest loss %d\n", s.LongestWin(), s.LongestLoss())

	lengths := streakLengths(s.Win.Exact, s.Loss.Exact)
	if len(lengths) == 0 {
		r.output.Println()
		return
	}
	table := NewTable(r.output, "LENGTH", "WIN ≥", "LOSS ≥", "WIN =", "LOSS =")
	for _, n := range lengths {
		table.AddRow(
			fmt.Sprintf("%d", n),
			fmt.Sprintf("%d", s.Win.Cumulative[n]),
			fmt.Sprintf("%d", s.Loss.Cumulative[n]),
			fmt.Sprintf("%d", s.Win.Exact[n]),
			fmt.Sprintf("%d", s.Loss.Exact[n]),
		)
	}
	table.Render()
	r.output.Println()
}

func (r *reportRenderer) faults(faults []models.TradeFault) {
	if len(faults) == 0 {
		return
	}
	r.output.Bold("Excluded trades")
	for _, f := range faults {
		r.output.Warning("  #%d %s %s: %s", f.Index, f.Pair, f.Kind, f.Message)
	}
}

// streakLengths lists every length from the shortest to the longest recorded run.
func streakLengths(a, b map[int]int) []int {
	var keys []int
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Ints(keys)

	out := make([]int, 0, keys[len(keys)-1]-keys[0]+1)
	for n := keys[0]; n <= keys[len(keys)-1]; n++ {
		out = append(out, n)
	}
	return out
}
