package analytics

import (
	"math"

	"github.com/sourcegraph/conc/iter"

	"tradestat/internal/models"
)

// Category names a direction partition of the trade set.
type Category string

const (
	CategoryAll   Category = "all"
	CategoryLong  Category = "long"
	CategoryShort Category = "short"
)

// CategoryStats is the summary metric set for one partition in one unit system.
type CategoryStats struct {
	Trades         int     `json:"trades"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	WinRate        float64 `json:"win_rate"`
	GrossProfit    float64 `json:"gross_profit"`
	GrossLoss      float64 `json:"gross_loss"`
	Net            float64 `json:"net"`
	Average        float64 `json:"average"`
	Median         float64 `json:"median"`
	StdDev         float64 `json:"std_dev"`
	AvgWin         float64 `json:"avg_win"`
	AvgLoss        float64 `json:"avg_loss"`
	MaxWin         float64 `json:"max_win"`
	MaxLoss        float64 `json:"max_loss"`
	ProfitFactor   Ratio   `json:"profit_factor"`
	AvgRiskReward  Ratio   `json:"avg_risk_reward"`
	Expectancy     float64 `json:"expectancy"`
	AvgBarsHeld    float64 `json:"avg_bars_held"`
	MaxBarsHeld    int     `json:"max_bars_held"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	RecoveryFactor Ratio   `json:"recovery_factor"`
	TradesPerMonth float64 `json:"trades_per_month"`
	NetPerMonth    float64 `json:"net_per_month"`
	NetPerTrade    float64 `json:"net_per_trade"`
}

// Categories holds the stats for all trades and for each direction.
type Categories struct {
	All   models.Dual[CategoryStats] `json:"all"`
	Long  models.Dual[CategoryStats] `json:"long"`
	Short models.Dual[CategoryStats] `json:"short"`
}

// Get returns the stats of one category.
func (c Categories) Get(cat Category) models.Dual[CategoryStats] {
	switch cat {
	case CategoryLong:
		return c.Long
	case CategoryShort:
		return c.Short
	default:
		return c.All
	}
}

// StatsOptions configures the general stats aggregator.
type StatsOptions struct {
	// Months is the calendar span used for per-month rates.
	Months   int
	Drawdown DrawdownOptions
}

type partition struct {
	category Category
	trades   []models.NormalizedTrade
}

// ComputeGeneralStats splits trades into all/long/short and computes every metric
// for both unit systems. Partitions are computed concurrently; an empty partition
// yields zero-valued stats.
func ComputeGeneralStats(trades []models.NormalizedTrade, opts StatsOptions) Categories {
	parts := []partition{
		{category: CategoryAll, trades: trades},
		{category: CategoryLong, trades: filterTrades(trades, models.NormalizedTrade.IsLong)},
		{category: CategoryShort, trades: filterTrades(trades, func(t models.NormalizedTrade) bool { return !t.IsLong() })},
	}

	results := iter.Map(parts, func(p *partition) models.Dual[CategoryStats] {
		return categoryStats(p.trades, opts)
	})

	return Categories{All: results[0], Long: results[1], Short: results[2]}
}

func categoryStats(trades []models.NormalizedTrade, opts StatsOptions) models.Dual[CategoryStats] {
	if len(trades) == 0 {
		return models.Dual[CategoryStats]{}
	}

	curve := BuildEquity(trades)
	return models.Dual[CategoryStats]{
		Pips:      unitStats(trades, models.UnitPips, curve.Pips, opts),
		ValuePips: unitStats(trades, models.UnitValuePips, curve.ValuePips, opts),
	}
}

func unitStats(trades []models.NormalizedTrade, unit models.Unit, curve []EquityPoint, opts StatsOptions) CategoryStats {
	n := len(trades)
	returns := make([]float64, n)
	var wins, losses []float64
	var totalBars float64
	var maxBars int

	for i, t := range trades {
		r := t.Return(unit)
		returns[i] = r
		if t.IsWin {
			wins = append(wins, r)
		} else {
			losses = append(losses, r)
		}
		totalBars += float64(t.BarsHeld)
		if t.BarsHeld > maxBars {
			maxBars = t.BarsHeld
		}
	}

	s := CategoryStats{
		Trades:      n,
		Wins:        len(wins),
		Losses:      len(losses),
		WinRate:     percentOf(len(wins), n),
		GrossProfit: sum(wins),
		GrossLoss:   math.Abs(sum(losses)),
		Net:         sum(returns),
		Average:     mean(returns),
		Median:      median(returns),
		StdDev:      stddev(returns),
		AvgWin:      mean(wins),
		AvgLoss:     mean(losses),
		AvgBarsHeld: totalBars / float64(n),
		MaxBarsHeld: maxBars,
	}

	for _, w := range wins {
		s.MaxWin = math.Max(s.MaxWin, w)
	}
	for _, l := range losses {
		s.MaxLoss = math.Min(s.MaxLoss, l)
	}

	s.ProfitFactor = NewRatio(s.GrossProfit, s.GrossLoss)
	s.AvgRiskReward = NewRatio(s.AvgWin, math.Abs(s.AvgLoss))

	winRate := float64(s.Wins) / float64(n)
	lossRate := float64(s.Losses) / float64(n)
	s.Expectancy = winRate*s.AvgWin + lossRate*s.AvgLoss

	s.MaxDrawdown = DetectDrawdowns(curve, opts.Drawdown).MaxAbsolute
	s.RecoveryFactor = NewRatio(s.Net, s.MaxDrawdown)

	s.NetPerTrade = s.Net / float64(n)
	if opts.Months > 0 {
		s.TradesPerMonth = float64(n) / float64(opts.Months)
		s.NetPerMonth = s.Net / float64(opts.Months)
	}

	return s
}

func filterTrades(trades []models.NormalizedTrade, keep func(models.NormalizedTrade) bool) []models.NormalizedTrade {
	out := make([]models.NormalizedTrade, 0, len(trades))
	for _, t := range trades {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
