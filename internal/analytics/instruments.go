// Package analytics computes trade performance statistics from closed-position history.
//
// The pipeline is a pure batch computation: trades are normalized into pips and value pips,
// folded into equity curves, scanned for drawdowns and streaks, and aggregated by period,
// instrument and direction. Every metric is reported in both unit systems via models.Dual.
package analytics

import (
	"sort"
	"strings"
)

// Instrument holds the static per-instrument settings.
type Instrument struct {
	Multiplier float64 `mapstructure:"multiplier" json:"multiplier"`
}

// InstrumentTable maps a pair code to its settings.
type InstrumentTable map[string]Instrument

// DefaultInstruments returns the risk-normalization weights for the supported pairs.
func DefaultInstruments() InstrumentTable {
	return InstrumentTable{
		"XAUUSD": {Multiplier: 0.5},
		"GBPJPY": {Multiplier: 1},
		"EURNZD": {Multiplier: 1},
		"EURJPY": {Multiplier: 1},
		"USDJPY": {Multiplier: 1},
		"CHFJPY": {Multiplier: 1},
		"AUDJPY": {Multiplier: 1.5},
		"CADJPY": {Multiplier: 1.5},
		"NZDJPY": {Multiplier: 1.5},
		"GBPUSD": {Multiplier: 1.5},
		"EURUSD": {Multiplier: 1.5},
		"USDCAD": {Multiplier: 1.5},
		"USDCHF": {Multiplier: 2},
		"AUDUSD": {Multiplier: 2},
		"NZDUSD": {Multiplier: 2},
		"EURGBP": {Multiplier: 2},
	}
}

// Multiplier returns the value-pip weight for pair, 1.0 when the pair is not listed.
func (t InstrumentTable) Multiplier(pair string) float64 {
	if inst, ok := t[strings.ToUpper(pair)]; ok && inst.Multiplier > 0 {
		return inst.Multiplier
	}
	return 1
}

// Pairs returns the listed pair codes in sorted order.
func (t InstrumentTable) Pairs() []string {
	pairs := make([]string, 0, len(t))
	for p := range t {
		pairs = append(pairs, p)
	}
	sort.Strings(pairs)
	return pairs
}

// Merge returns a copy of t with the entries of other applied on top.
// Keys are upper-cased, since config loaders fold map keys to lower case.
func (t InstrumentTable) Merge(other InstrumentTable) InstrumentTable {
	out := make(InstrumentTable, len(t)+len(other))
	for k, v := range t {
		out[strings.ToUpper(k)] = v
	}
	for k, v := range other {
		out[strings.ToUpper(k)] = v
	}
	return out
}
