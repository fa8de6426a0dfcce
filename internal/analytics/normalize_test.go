package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradestat/internal/models"
)

func TestNormalize_SortsByExitDateStably(t *testing.T) {
	raws := []models.RawTrade{
		makeRaw("EURUSD", models.Long, day(2024, time.March, 1), day(2024, time.March, 3), "1.1000", "1.1050", "1.0950", models.HitTarget),
		makeRaw("GBPUSD", models.Long, day(2024, time.February, 27), day(2024, time.March, 1), "1.2000", "1.2050", "1.1950", models.HitStop),
		makeRaw("AUDUSD", models.Short, day(2024, time.March, 2), day(2024, time.March, 3), "0.6600", "0.6550", "0.6650", models.HitTarget),
	}

	trades, faults := Normalize(raws, NormalizeOptions{Bars: NewBarEstimator(4)})
	require.Empty(t, faults)
	require.Len(t, trades, 3)

	assert.Equal(t, []int{1, 0, 2}, []int{trades[0].Index, trades[1].Index, trades[2].Index})
	assert.Equal(t, "2024-03", trades[0].MonthKey)
	assert.False(t, trades[0].IsWin)
	assert.InDelta(t, -50, trades[0].Pips, 1e-9)
	assert.InDelta(t, 50, trades[2].Pips, 1e-9)
	assert.InDelta(t, 100, trades[2].ValuePips, 1e-9)
	assert.Equal(t, 18, trades[0].BarsHeld)
	// Friday to Sunday: only the Friday afternoon counts.
	assert.Equal(t, 3, trades[1].BarsHeld)
}

func TestNormalize_ReportsFaults(t *testing.T) {
	d := day(2024, time.January, 2)
	bad := makeRaw("EURUSD", models.Long, d, d, "1.1000", "1.1050", "1.0950", models.HitTarget)
	bad.Pair = "EUR-USD"

	raws := []models.RawTrade{
		makeRaw("EURUSD", models.Long, d, d, "1.1000", "1.1050", "1.0950", models.HitTarget),
		bad,
	}

	trades, faults := Normalize(raws, NormalizeOptions{})
	require.Len(t, trades, 1)
	require.Len(t, faults, 1)

	assert.Equal(t, 1, faults[0].Index)
	assert.Equal(t, "EUR-USD", faults[0].Pair)
	assert.Equal(t, "pair", faults[0].Field)
	assert.Equal(t, "InvalidInstrument", faults[0].Kind)
	assert.Contains(t, faults[0].Message, "trade #1")
}

func TestNormalize_SignFollowsOutcome(t *testing.T) {
	d := day(2024, time.January, 2)
	// Take profit on the wrong side of entry still counts as a win.
	raws := []models.RawTrade{
		makeRaw("EURUSD", models.Long, d, d, "1.1000", "1.0950", "1.1050", models.HitTarget),
		makeRaw("EURUSD", models.Long, d, d, "1.1000", "1.0950", "1.1050", models.HitStop),
	}

	trades, faults := Normalize(raws, NormalizeOptions{})
	require.Empty(t, faults)

	assert.InDelta(t, 50, trades[0].Pips, 1e-9)
	assert.InDelta(t, 75, trades[0].ValuePips, 1e-9)
	assert.InDelta(t, -50, trades[1].Pips, 1e-9)
	assert.InDelta(t, -75, trades[1].ValuePips, 1e-9)
}
