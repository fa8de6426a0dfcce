package analytics

import (
	"fmt"

	apperrors "tradestat/internal/errors"
	"tradestat/internal/models"
)

// Options configures a full statistics computation.
type Options struct {
	Instruments     InstrumentTable `json:"-"`
	BarHours        float64         `json:"bar_hours"`
	Drawdown        DrawdownOptions `json:"drawdown"`
	MinStreakLength int             `json:"min_streak_length"`
	StabilityTarget float64         `json:"stability_target"`
}

// DefaultOptions returns the options used when no configuration is supplied.
func DefaultOptions() Options {
	return Options{
		Instruments:     DefaultInstruments(),
		BarHours:        DefaultBarHours,
		Drawdown:        DrawdownOptions{TriggerThreshold: 0, BarHours: DefaultBarHours},
		MinStreakLength: DefaultMinStreakLength,
	}
}

func (o Options) withDefaults() Options {
	if o.Instruments == nil {
		o.Instruments = DefaultInstruments()
	}
	if o.BarHours <= 0 {
		o.BarHours = DefaultBarHours
	}
	if o.Drawdown.BarHours <= 0 {
		o.Drawdown.BarHours = o.BarHours
	}
	if o.MinStreakLength < 1 {
		o.MinStreakLength = DefaultMinStreakLength
	}
	return o
}

// Snapshot is the immutable result of one computation run.
type Snapshot struct {
	Empty      bool                        `json:"empty"`
	TradeCount int                         `json:"trade_count"`
	Trades     []models.NormalizedTrade    `json:"trades"`
	Periods    PeriodResult                `json:"periods"`
	Equity     models.Dual[[]EquityPoint]  `json:"equity"`
	Drawdown   models.Dual[DrawdownResult] `json:"drawdown"`
	General    Categories                  `json:"general"`
	Streaks    StreakResult                `json:"streaks"`
	Options    Options                     `json:"options"`
}

// Instruments returns the per-pair aggregates.
func (s Snapshot) Instruments() []InstrumentBucket {
	return s.Periods.Instruments
}

// Report is a snapshot together with the trades excluded while building it.
type Report struct {
	InputCount int                 `json:"input_count"`
	Snapshot   Snapshot            `json:"snapshot"`
	Faults     []models.TradeFault `json:"faults"`
}

// Conditions returns the non-fatal structural conditions met while computing the
// report: an empty input set and direction partitions without trades.
func (r Report) Conditions() []error {
	var conds []error
	if r.InputCount == 0 {
		conds = append(conds, apperrors.ErrEmptyInputSet)
	}
	if r.Snapshot.Empty {
		return conds
	}
	for _, cat := range []Category{CategoryLong, CategoryShort} {
		if r.Snapshot.General.Get(cat).Pips.Trades == 0 {
			conds = append(conds, fmt.Errorf("%w: %s", apperrors.ErrDegenerateCategory, cat))
		}
	}
	return conds
}

// Assemble runs the full pipeline over raws.
func Assemble(raws []models.RawTrade, opts Options) Report {
	opts = opts.withDefaults()

	trades, faults := Normalize(raws, NormalizeOptions{
		Instruments: opts.Instruments,
		Bars:        NewBarEstimator(opts.BarHours),
	})
	if faults == nil {
		faults = make([]models.TradeFault, 0)
	}

	periods := AggregatePeriods(trades, PeriodOptions{StabilityTarget: opts.StabilityTarget})
	equity := BuildEquity(trades)

	snap := Snapshot{
		Empty:      len(trades) == 0,
		TradeCount: len(trades),
		Trades:     trades,
		Periods:    periods,
		Equity:     equity,
		Drawdown: models.MapDual(equity, func(_ models.Unit, curve []EquityPoint) DrawdownResult {
			return DetectDrawdowns(curve, opts.Drawdown)
		}),
		General: ComputeGeneralStats(trades, StatsOptions{
			Months:   periods.Stats.Span.CalendarMonths,
			Drawdown: opts.Drawdown,
		}),
		Streaks: AnalyzeStreaks(trades, opts.MinStreakLength),
		Options: opts,
	}

	return Report{Snapshot: snap, Faults: faults, InputCount: len(raws)}
}
