package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"tradestat/internal/models"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// makeRaw builds a raw trade from string prices.
func makeRaw(pair string, dir models.Direction, entry, exit time.Time, en, tp, sl string, outcome models.Outcome) models.RawTrade {
	return models.RawTrade{
		Pair:            pair,
		Direction:       dir,
		EntryDate:       entry,
		ExitDate:        exit,
		EntryPrice:      decimal.RequireFromString(en),
		TakeProfitPrice: decimal.RequireFromString(tp),
		StopLossPrice:   decimal.RequireFromString(sl),
		Outcome:         outcome,
	}
}

// makeNormalized builds an already-normalized trade; value pips are twice the pips.
func makeNormalized(index int, pips float64, dir models.Direction, exit time.Time, bars int) models.NormalizedTrade {
	outcome := models.HitStop
	if pips > 0 {
		outcome = models.HitTarget
	}
	return models.NormalizedTrade{
		RawTrade: models.RawTrade{
			Pair:      "EURUSD",
			Direction: dir,
			EntryDate: exit.AddDate(0, 0, -1),
			ExitDate:  exit,
			Outcome:   outcome,
		},
		Index:     index,
		IsWin:     pips > 0,
		Pips:      pips,
		ValuePips: pips * 2,
		MonthKey:  exit.Format("2006-01"),
		BarsHeld:  bars,
	}
}

// curveFrom builds a pip equity curve from per-trade increments, one day apart.
func curveFrom(increments ...float64) []EquityPoint {
	trades := make([]models.NormalizedTrade, len(increments))
	for i, inc := range increments {
		trades[i] = makeNormalized(i, inc, models.Long, day(2024, time.January, 1).AddDate(0, 0, i), 1)
	}
	return BuildEquity(trades).Pips
}

func outcomesFrom(wins ...bool) []models.NormalizedTrade {
	trades := make([]models.NormalizedTrade, len(wins))
	for i, w := range wins {
		pips := -10.0
		if w {
			pips = 10
		}
		trades[i] = makeNormalized(i, pips, models.Long, day(2024, time.January, 1).AddDate(0, 0, i), 1)
	}
	return trades
}
