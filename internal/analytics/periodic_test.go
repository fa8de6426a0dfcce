package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradestat/internal/models"
)

func periodFixture(t *testing.T) []models.NormalizedTrade {
	t.Helper()
	raws := []models.RawTrade{
		makeRaw("EURUSD", models.Long, day(2024, time.March, 4), day(2024, time.March, 5), "1.1000", "1.1050", "1.0950", models.HitTarget),
		makeRaw("USDJPY", models.Short, day(2024, time.March, 19), day(2024, time.March, 20), "150.00", "149.50", "150.30", models.HitStop),
		makeRaw("GBPUSD", models.Long, day(2024, time.April, 9), day(2024, time.April, 10), "1.2000", "1.2020", "1.1980", models.HitTarget),
	}
	trades, faults := Normalize(raws, NormalizeOptions{})
	require.Empty(t, faults)
	return trades
}

func TestAggregatePeriods_Months(t *testing.T) {
	res := AggregatePeriods(periodFixture(t), PeriodOptions{})

	require.Len(t, res.Years, 1)
	year := res.Years[0]
	assert.Equal(t, "2024", year.Key)
	assert.Equal(t, 3, year.Count)

	months := res.Months()
	require.Len(t, months, 2)

	march := months[0]
	assert.Equal(t, "2024-03", march.Key)
	assert.Equal(t, time.March, march.Month)
	assert.Equal(t, 2, march.Count)
	assert.InDelta(t, 20, march.Net.Pips, 1e-9)
	assert.InDelta(t, 45, march.Net.ValuePips, 1e-9)
	assert.InDelta(t, 20, march.YTD.Pips, 1e-9)

	april := months[1]
	assert.InDelta(t, 20, april.Net.Pips, 1e-9)
	assert.InDelta(t, 30, april.Net.ValuePips, 1e-9)
	assert.InDelta(t, 40, april.YTD.Pips, 1e-9)
	assert.InDelta(t, 75, april.YTD.ValuePips, 1e-9)

	assert.InDelta(t, 40, res.Total.Pips, 1e-9)
	assert.InDelta(t, 75, res.Total.ValuePips, 1e-9)
}

func TestAggregatePeriods_Instruments(t *testing.T) {
	res := AggregatePeriods(periodFixture(t), PeriodOptions{})

	require.Len(t, res.Instruments, 3)
	assert.Equal(t, "EURUSD", res.Instruments[0].Pair)
	assert.Equal(t, "GBPUSD", res.Instruments[1].Pair)
	assert.Equal(t, "USDJPY", res.Instruments[2].Pair)

	jpy := res.Instruments[2]
	assert.Equal(t, 1, jpy.Count)
	assert.Equal(t, 1, jpy.Losses)
	assert.Equal(t, 0.0, jpy.WinRate)
	assert.InDelta(t, -30, jpy.Net.Pips, 1e-9)
	assert.InDelta(t, -30, jpy.Avg.ValuePips, 1e-9)
}

func TestAggregatePeriods_Stats(t *testing.T) {
	res := AggregatePeriods(periodFixture(t), PeriodOptions{})
	stats := res.Stats

	assert.Equal(t, day(2024, time.March, 4), stats.Span.Start)
	assert.Equal(t, day(2024, time.April, 10), stats.Span.End)
	assert.Equal(t, 2, stats.Span.Months)
	assert.Equal(t, 2, stats.Span.CalendarMonths)

	assert.Equal(t, 100.0, stats.Stability.Pips)
	assert.Equal(t, 100.0, stats.Stability.ValuePips)
	assert.InDelta(t, 20, stats.AvgMonthly.Pips, 1e-9)
	assert.InDelta(t, 37.5, stats.AvgMonthly.ValuePips, 1e-9)
	assert.InDelta(t, 0, stats.StdDev.Pips, 1e-9)
	assert.InDelta(t, 7.5, stats.StdDev.ValuePips, 1e-9)

	require.NotNil(t, stats.Best)
	require.NotNil(t, stats.Worst)
	assert.Equal(t, "2024-03", stats.Best.Key)
	assert.Equal(t, "2024-04", stats.Worst.Key)
}

func TestAggregatePeriods_StabilityTarget(t *testing.T) {
	res := AggregatePeriods(periodFixture(t), PeriodOptions{StabilityTarget: 40})

	assert.Equal(t, 40.0, res.Stats.Target)
	assert.Equal(t, 0.0, res.Stats.Stability.Pips)
	assert.Equal(t, 50.0, res.Stats.Stability.ValuePips)
}

func TestAggregatePeriods_AcrossYears(t *testing.T) {
	trades := []models.NormalizedTrade{
		makeNormalized(0, 10, models.Long, day(2023, time.December, 28), 1),
		makeNormalized(1, -5, models.Short, day(2024, time.January, 3), 1),
	}
	res := AggregatePeriods(trades, PeriodOptions{})

	require.Len(t, res.Years, 2)
	assert.Equal(t, 2023, res.Years[0].Year)
	assert.Equal(t, 2024, res.Years[1].Year)
	// Year-to-date totals restart each year.
	assert.Equal(t, -5.0, res.Years[1].Months[0].YTD.Pips)
	assert.Equal(t, 2, res.Stats.Span.CalendarMonths)
	assert.InDelta(t, 50, res.Stats.Stability.Pips, 1e-9)
	assert.InDelta(t, math.Sqrt(56.25), res.Stats.StdDev.Pips, 1e-9)
}

func TestAggregatePeriods_Empty(t *testing.T) {
	res := AggregatePeriods(nil, PeriodOptions{StabilityTarget: 5})

	assert.NotNil(t, res.Years)
	assert.Empty(t, res.Instruments)
	assert.Nil(t, res.Stats.Best)
	assert.Equal(t, 5.0, res.Stats.Target)
	assert.Equal(t, 0, res.Stats.Span.CalendarMonths)
}
