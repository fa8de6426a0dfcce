package analytics

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"tradestat/internal/models"
)

var propertyPairs = []string{"EURUSD", "GBPUSD", "USDJPY", "XAUUSD", "AUDUSD", "EURGBP", "GBPCAD"}

// randomTrades builds n raw trades from seed. Prices are positive but take profit
// and stop loss may sit on either side of entry.
func randomTrades(seed int64, n int) []models.RawTrade {
	rng := rand.New(rand.NewSource(seed))
	start := day(2023, time.January, 2)

	trades := make([]models.RawTrade, n)
	for i := range trades {
		entry := decimal.NewFromFloat(0.5 + rng.Float64()*2).Round(5)
		offset := func() decimal.Decimal {
			return decimal.NewFromFloat(0.0001 + rng.Float64()*0.05).Round(5)
		}

		dir := models.Long
		if rng.Intn(2) == 0 {
			dir = models.Short
		}
		outcome := models.HitTarget
		if rng.Intn(2) == 0 {
			outcome = models.HitStop
		}

		entryDate := start.AddDate(0, 0, rng.Intn(500))
		trades[i] = models.RawTrade{
			Pair:            propertyPairs[rng.Intn(len(propertyPairs))],
			Direction:       dir,
			EntryDate:       entryDate,
			ExitDate:        entryDate.AddDate(0, 0, rng.Intn(10)),
			EntryPrice:      entry,
			TakeProfitPrice: entry.Add(offset()),
			StopLossPrice:   entry.Sub(offset()),
			Outcome:         outcome,
		}
	}
	return trades
}

func newProperties(minSuccessful int) *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = minSuccessful
	parameters.Rng.Seed(time.Now().UnixNano())
	return gopter.NewProperties(parameters)
}

// Property: a normalized trade's sign always agrees with its outcome, in both units,
// and value pips are pips scaled by the instrument multiplier.
func TestProperty_SignFollowsOutcome(t *testing.T) {
	properties := newProperties(100)
	table := DefaultInstruments()

	properties.Property("pips sign matches outcome", prop.ForAll(
		func(seed int64, n int) bool {
			trades, faults := Normalize(randomTrades(seed, n), NormalizeOptions{Instruments: table})
			if len(faults) != 0 {
				return false
			}
			for _, tr := range trades {
				if tr.IsWin != (tr.Pips > 0) || tr.IsWin != (tr.ValuePips > 0) {
					return false
				}
				if math.Abs(math.Abs(tr.ValuePips)-math.Abs(tr.Pips)*table.Multiplier(tr.Pair)) > 1e-6 {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(0, 40),
	))

	properties.TestingRun(t)
}

// Property: every curve point is the previous point plus its increment.
func TestProperty_EquityRecurrence(t *testing.T) {
	properties := newProperties(100)

	properties.Property("cumulative follows increments", prop.ForAll(
		func(increments []float64) bool {
			curve := curveFrom(increments...)
			var cum float64
			for i, p := range curve {
				cum += increments[i]
				if p.Index != i || p.Cumulative != cum || p.Increment != increments[i] {
					return false
				}
			}
			return len(curve) == len(increments)
		},
		gen.SliceOf(gen.Float64Range(-100, 100)),
	))

	properties.TestingRun(t)
}

// Property: drawdown events meet the threshold and are internally ordered. Across
// events indices are non-decreasing: a recovery point may be the next event's peak.
func TestProperty_DrawdownEvents(t *testing.T) {
	properties := newProperties(200)

	properties.Property("events are positive and in non-decreasing index order", prop.ForAll(
		func(increments []float64, threshold float64) bool {
			res := DetectDrawdowns(curveFrom(increments...), DrawdownOptions{TriggerThreshold: threshold})
			if res.Count != len(res.Events) {
				return false
			}

			lastEnd := -1
			for i, ev := range res.Events {
				if ev.Absolute <= 0 || ev.Absolute < threshold || ev.Percent < 0 {
					return false
				}
				if ev.Peak.Index < lastEnd || ev.Peak.Index >= ev.Trough.Index {
					return false
				}
				if ev.Recovered() {
					if ev.Recovery.Index <= ev.Trough.Index || ev.Recovery.Value <= ev.Peak.Value {
						return false
					}
					lastEnd = ev.Recovery.Index
				} else if i != len(res.Events)-1 {
					return false
				}
				if ev.Absolute > res.MaxAbsolute {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(-50, 50)),
		gen.Float64Range(0, 60),
	))

	properties.TestingRun(t)
}

// Property: cumulative streak counts never increase with length and agree with exact counts.
func TestProperty_StreakCounts(t *testing.T) {
	properties := newProperties(200)

	properties.Property("cumulative counts are consistent", prop.ForAll(
		func(wins []bool, minLength int) bool {
			res := AnalyzeStreaks(outcomesFrom(wins...), minLength)

			covered := 0
			for _, ep := range res.Episodes {
				covered += ep.Length
				if ep.Length < minLength || ep.EndIndex-ep.StartIndex+1 != ep.Length {
					return false
				}
			}
			if covered > len(wins) {
				return false
			}

			for _, counts := range []StreakCounts{res.Win, res.Loss} {
				for n := minLength; n <= counts.Longest; n++ {
					if counts.Cumulative[n] < counts.Cumulative[n+1] {
						return false
					}
					exactAbove := 0
					for length, c := range counts.Exact {
						if length >= n {
							exactAbove += c
						}
					}
					if exactAbove != counts.Cumulative[n] {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.Bool()),
		gen.IntRange(1, 5),
	))

	properties.TestingRun(t)
}

// Property: the all category is exactly the union of long and short.
func TestProperty_CategoryCompleteness(t *testing.T) {
	properties := newProperties(100)

	properties.Property("all = long + short", prop.ForAll(
		func(seed int64, n int) bool {
			rep := Assemble(randomTrades(seed, n), DefaultOptions())
			g := rep.Snapshot.General
			for _, u := range []models.Unit{models.UnitPips, models.UnitValuePips} {
				all, long, short := g.All.Get(u), g.Long.Get(u), g.Short.Get(u)
				if all.Trades != long.Trades+short.Trades || all.Wins != long.Wins+short.Wins {
					return false
				}
				if math.Abs(all.Net-(long.Net+short.Net)) > 1e-6 {
					return false
				}
			}
			return rep.Snapshot.TradeCount == n
		},
		gen.Int64(),
		gen.IntRange(0, 60),
	))

	properties.TestingRun(t)
}

// Property: assembling the same input twice yields identical output.
func TestProperty_AssembleIdempotent(t *testing.T) {
	properties := newProperties(50)

	properties.Property("same input, same report", prop.ForAll(
		func(seed int64, n int) bool {
			raws := randomTrades(seed, n)
			a, errA := json.Marshal(Assemble(raws, DefaultOptions()))
			b, errB := json.Marshal(Assemble(raws, DefaultOptions()))
			return errA == nil && errB == nil && string(a) == string(b)
		},
		gen.Int64(),
		gen.IntRange(0, 60),
	))

	properties.TestingRun(t)
}
