package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawTrade represents a validated closed position as supplied by the trade feed.
type RawTrade struct {
	Pair            string          `json:"pair"`
	Direction       Direction       `json:"direction"`
	EntryDate       time.Time       `json:"entry_date"`
	ExitDate        time.Time       `json:"exit_date"`
	EntryPrice      decimal.Decimal `json:"entry_price"`
	TakeProfitPrice decimal.Decimal `json:"take_profit_price"`
	StopLossPrice   decimal.Decimal `json:"stop_loss_price"`
	Outcome         Outcome         `json:"outcome"`
}

// NormalizedTrade is a RawTrade enriched with derived per-trade metrics.
type NormalizedTrade struct {
	RawTrade
	Index     int     `json:"index"` // position in the input set
	IsWin     bool    `json:"is_win"`
	Pips      float64 `json:"pips"`
	ValuePips float64 `json:"vpips"`
	MonthKey  string  `json:"month"`
	BarsHeld  int     `json:"bars_held"`
}

// IsLong reports whether the trade was a long position.
func (t NormalizedTrade) IsLong() bool {
	return t.Direction == Long
}

// Return returns the signed contribution of the trade in the given unit.
func (t NormalizedTrade) Return(u Unit) float64 {
	if u == UnitValuePips {
		return t.ValuePips
	}
	return t.Pips
}

// TradeFault records a trade excluded from a computation run.
type TradeFault struct {
	Index   int    `json:"index"`
	Pair    string `json:"pair"`
	Field   string `json:"field,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
