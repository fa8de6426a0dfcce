// Package models provides domain models for trade performance analytics.
package models

import "strings"

// Direction represents the side of a closed position.
type Direction string

const (
	Long  Direction = "Long"
	Short Direction = "Short"
)

// ParseDirection accepts Long/Short as well as the Buy/Sell spelling used by trade exports.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LONG", "BUY":
		return Long, true
	case "SHORT", "SELL":
		return Short, true
	default:
		return "", false
	}
}

// Outcome represents how a position was closed.
type Outcome string

const (
	HitTarget Outcome = "HitTarget"
	HitStop   Outcome = "HitStop"
)

// ParseOutcome accepts HitTarget/HitStop and the TP/SL shorthand.
func ParseOutcome(s string) (Outcome, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TP", "HITTARGET", "TARGET":
		return HitTarget, true
	case "SL", "HITSTOP", "STOP":
		return HitStop, true
	default:
		return "", false
	}
}

// Unit identifies one of the two unit systems every metric is reported in.
type Unit string

const (
	UnitPips      Unit = "pips"
	UnitValuePips Unit = "vpips"
)

// Dual holds the same metric in both unit systems side by side.
type Dual[T any] struct {
	Pips      T `json:"pips"`
	ValuePips T `json:"vpips"`
}

// Get returns the arm for the given unit.
func (d Dual[T]) Get(u Unit) T {
	if u == UnitValuePips {
		return d.ValuePips
	}
	return d.Pips
}

// MapDual applies fn to both arms.
func MapDual[T, R any](d Dual[T], fn func(Unit, T) R) Dual[R] {
	return Dual[R]{
		Pips:      fn(UnitPips, d.Pips),
		ValuePips: fn(UnitValuePips, d.ValuePips),
	}
}
