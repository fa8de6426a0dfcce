package analytics

import (
	"time"

	"tradestat/internal/models"
)

// EquityPoint is one step of a cumulative equity curve.
type EquityPoint struct {
	Index      int              `json:"index"`
	Date       time.Time        `json:"date"`
	Increment  float64          `json:"increment"`
	Cumulative float64          `json:"cumulative"`
	Pair       string           `json:"pair"`
	Direction  models.Direction `json:"direction"`
}

// BuildEquity folds time-ordered trades into one cumulative curve per unit system.
func BuildEquity(trades []models.NormalizedTrade) models.Dual[[]EquityPoint] {
	curve := models.Dual[[]EquityPoint]{
		Pips:      make([]EquityPoint, 0, len(trades)),
		ValuePips: make([]EquityPoint, 0, len(trades)),
	}

	var cumPips, cumValue float64
	for i, t := range trades {
		cumPips += t.Pips
		cumValue += t.ValuePips

		base := EquityPoint{
			Index:     i,
			Date:      t.ExitDate,
			Pair:      t.Pair,
			Direction: t.Direction,
		}

		p := base
		p.Increment, p.Cumulative = t.Pips, cumPips
		curve.Pips = append(curve.Pips, p)

		v := base
		v.Increment, v.Cumulative = t.ValuePips, cumValue
		curve.ValuePips = append(curve.ValuePips, v)
	}

	return curve
}
