package analytics

import (
	"sort"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/iter"

	"tradestat/internal/models"
)

// PeriodOptions configures periodic aggregation.
type PeriodOptions struct {
	// StabilityTarget is the monthly net a month must reach to count as stable.
	StabilityTarget float64 `json:"stability_target"`
}

// MonthBucket aggregates the trades closed in one calendar month.
type MonthBucket struct {
	Key   string               `json:"key"` // YYYY-MM
	Year  int                  `json:"year"`
	Month time.Month           `json:"month"`
	Count int                  `json:"count"`
	Net   models.Dual[float64] `json:"net"`
	YTD   models.Dual[float64] `json:"ytd"` // year-to-date total including this month
}

// YearBucket aggregates one calendar year.
type YearBucket struct {
	Key    string               `json:"key"` // YYYY
	Year   int                  `json:"year"`
	Count  int                  `json:"count"`
	Net    models.Dual[float64] `json:"net"`
	Months []MonthBucket        `json:"months"`
}

// InstrumentBucket aggregates the trades of one pair.
type InstrumentBucket struct {
	Pair    string               `json:"pair"`
	Count   int                  `json:"count"`
	Wins    int                  `json:"wins"`
	Losses  int                  `json:"losses"`
	WinRate float64              `json:"win_rate"`
	Net     models.Dual[float64] `json:"net"`
	Avg     models.Dual[float64] `json:"avg"`
}

// PeriodSpan describes the calendar range covered by the trades.
type PeriodSpan struct {
	Start          time.Time `json:"start"` // earliest entry
	End            time.Time `json:"end"`   // latest exit
	Months         int       `json:"months"`
	CalendarMonths int       `json:"calendar_months"`
}

// PeriodStats summarizes the monthly buckets.
type PeriodStats struct {
	Span       PeriodSpan           `json:"span"`
	Target     float64              `json:"target"`
	Stability  models.Dual[float64] `json:"stability"`
	AvgMonthly models.Dual[float64] `json:"avg_monthly"`
	StdDev     models.Dual[float64] `json:"std_dev"`
	Best       *MonthBucket         `json:"best,omitempty"`
	Worst      *MonthBucket         `json:"worst,omitempty"`
}

// PeriodResult holds calendar and instrument rollups.
type PeriodResult struct {
	Years       []YearBucket         `json:"years"`
	Total       models.Dual[float64] `json:"total"`
	Instruments []InstrumentBucket   `json:"instruments"`
	Stats       PeriodStats          `json:"stats"`
}

// Months returns all month buckets in chronological order.
func (r PeriodResult) Months() []MonthBucket {
	var out []MonthBucket
	for _, y := range r.Years {
		out = append(out, y.Months...)
	}
	return out
}

// AggregatePeriods buckets trades by exit month, exit year and pair.
// Years and pairs are independent partitions and are aggregated concurrently.
func AggregatePeriods(trades []models.NormalizedTrade, opts PeriodOptions) PeriodResult {
	res := PeriodResult{
		Years:       make([]YearBucket, 0),
		Instruments: make([]InstrumentBucket, 0),
	}
	if len(trades) == 0 {
		res.Stats.Target = opts.StabilityTarget
		return res
	}

	byYear := groupBy(trades, func(t models.NormalizedTrade) int { return t.ExitDate.Year() })
	byPair := groupBy(trades, func(t models.NormalizedTrade) string { return t.Pair })

	var wg conc.WaitGroup
	wg.Go(func() {
		res.Years = iter.Map(byYear, func(g *group[int]) YearBucket {
			return aggregateYear(g.key, g.trades)
		})
	})
	wg.Go(func() {
		res.Instruments = iter.Map(byPair, func(g *group[string]) InstrumentBucket {
			return aggregateInstrument(g.key, g.trades)
		})
	})
	wg.Wait()

	sort.Slice(res.Years, func(i, j int) bool { return res.Years[i].Year < res.Years[j].Year })
	sort.Slice(res.Instruments, func(i, j int) bool {
		a, b := res.Instruments[i], res.Instruments[j]
		if a.Net.ValuePips != b.Net.ValuePips {
			return a.Net.ValuePips > b.Net.ValuePips
		}
		return a.Pair < b.Pair
	})

	for _, y := range res.Years {
		res.Total.Pips += y.Net.Pips
		res.Total.ValuePips += y.Net.ValuePips
	}
	res.Stats = periodStats(trades, res.Months(), opts.StabilityTarget)

	return res
}

func aggregateYear(year int, trades []models.NormalizedTrade) YearBucket {
	yb := YearBucket{Key: yearKey(year), Year: year, Months: make([]MonthBucket, 0, 12)}

	byMonth := groupBy(trades, func(t models.NormalizedTrade) string { return t.MonthKey })
	sort.Slice(byMonth, func(i, j int) bool { return byMonth[i].key < byMonth[j].key })

	for _, g := range byMonth {
		mb := MonthBucket{
			Key:   g.key,
			Year:  year,
			Month: g.trades[0].ExitDate.Month(),
			Count: len(g.trades),
		}
		for _, t := range g.trades {
			mb.Net.Pips += t.Pips
			mb.Net.ValuePips += t.ValuePips
		}
		yb.Count += mb.Count
		yb.Net.Pips += mb.Net.Pips
		yb.Net.ValuePips += mb.Net.ValuePips
		mb.YTD = yb.Net
		yb.Months = append(yb.Months, mb)
	}

	return yb
}

func aggregateInstrument(pair string, trades []models.NormalizedTrade) InstrumentBucket {
	ib := InstrumentBucket{Pair: pair, Count: len(trades)}
	for _, t := range trades {
		if t.IsWin {
			ib.Wins++
		} else {
			ib.Losses++
		}
		ib.Net.Pips += t.Pips
		ib.Net.ValuePips += t.ValuePips
	}
	ib.WinRate = percentOf(ib.Wins, ib.Count)
	ib.Avg.Pips = ib.Net.Pips / float64(ib.Count)
	ib.Avg.ValuePips = ib.Net.ValuePips / float64(ib.Count)
	return ib
}

func periodStats(trades []models.NormalizedTrade, months []MonthBucket, target float64) PeriodStats {
	stats := PeriodStats{Target: target, Span: periodSpan(trades, len(months))}
	if len(months) == 0 {
		return stats
	}

	netPips := make([]float64, len(months))
	netValue := make([]float64, len(months))
	var stablePips, stableValue int
	best, worst := 0, 0

	for i, m := range months {
		netPips[i] = m.Net.Pips
		netValue[i] = m.Net.ValuePips
		if m.Net.Pips >= target {
			stablePips++
		}
		if m.Net.ValuePips >= target {
			stableValue++
		}
		if m.Net.ValuePips > months[best].Net.ValuePips {
			best = i
		}
		if m.Net.ValuePips < months[worst].Net.ValuePips {
			worst = i
		}
	}

	stats.Stability = models.Dual[float64]{
		Pips:      percentOf(stablePips, len(months)),
		ValuePips: percentOf(stableValue, len(months)),
	}
	stats.AvgMonthly = models.Dual[float64]{Pips: mean(netPips), ValuePips: mean(netValue)}
	stats.StdDev = models.Dual[float64]{Pips: stddev(netPips), ValuePips: stddev(netValue)}

	b, w := months[best], months[worst]
	stats.Best, stats.Worst = &b, &w

	return stats
}

func periodSpan(trades []models.NormalizedTrade, months int) PeriodSpan {
	span := PeriodSpan{Months: months}
	if len(trades) == 0 {
		return span
	}

	span.Start, span.End = trades[0].EntryDate, trades[0].ExitDate
	for _, t := range trades[1:] {
		if t.EntryDate.Before(span.Start) {
			span.Start = t.EntryDate
		}
		if t.ExitDate.After(span.End) {
			span.End = t.ExitDate
		}
	}

	span.CalendarMonths = (span.End.Year()-span.Start.Year())*12 + int(span.End.Month()-span.Start.Month()) + 1
	if span.CalendarMonths < 1 {
		span.CalendarMonths = 1
	}
	return span
}

type group[K comparable] struct {
	key    K
	trades []models.NormalizedTrade
}

// groupBy partitions trades by key, keeping first-seen key order and trade order.
func groupBy[K comparable](trades []models.NormalizedTrade, keyFn func(models.NormalizedTrade) K) []group[K] {
	index := make(map[K]int)
	var groups []group[K]
	for _, t := range trades {
		k := keyFn(t)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, group[K]{key: k})
		}
		groups[i].trades = append(groups[i].trades, t)
	}
	return groups
}

func yearKey(year int) string {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).Format("2006")
}
