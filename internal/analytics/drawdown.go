package analytics

import (
	"math"
	"time"
)

// DrawdownOptions configures drawdown detection.
type DrawdownOptions struct {
	// TriggerThreshold is the minimum drop below the running peak that opens a drawdown.
	TriggerThreshold float64 `json:"trigger_threshold"`
	// StartGate is the cumulative value the curve must reach before a peak is tracked.
	// Nil tracks from the first point.
	StartGate *float64 `json:"start_gate,omitempty"`
	// BarHours converts recovery time into bars.
	BarHours float64 `json:"bar_hours"`
}

// CurvePoint identifies a point of an equity curve.
type CurvePoint struct {
	Value float64   `json:"value"`
	Date  time.Time `json:"date"`
	Index int       `json:"index"`
}

// DrawdownEvent is a peak → trough → recovery episode. Recovery is nil when the
// curve ended before regaining the peak.
type DrawdownEvent struct {
	Peak               CurvePoint  `json:"peak"`
	Trough             CurvePoint  `json:"trough"`
	Recovery           *CurvePoint `json:"recovery"`
	Absolute           float64     `json:"absolute"`
	Percent            float64     `json:"percent"`
	DurationToTrough   int         `json:"duration_to_trough"`
	DurationToRecovery *int        `json:"duration_to_recovery"`
	RecoveryBars       *float64    `json:"recovery_bars"`
}

// Recovered reports whether the curve regained the peak.
func (e DrawdownEvent) Recovered() bool {
	return e.Recovery != nil
}

// DrawdownResult holds the detected events and their aggregates.
type DrawdownResult struct {
	Events              []DrawdownEvent `json:"events"`
	Count               int             `json:"count"`
	Recovered           int             `json:"recovered"`
	MaxAbsolute         float64         `json:"max_drawdown"`
	AvgAbsolute         float64         `json:"avg_drawdown"`
	MaxPercent          float64         `json:"max_drawdown_percent"`
	AvgPercent          float64         `json:"avg_drawdown_percent"`
	MaxRecoveryDuration int             `json:"max_recovery_duration"`
	AvgRecoveryDuration float64         `json:"avg_recovery_duration"`
	MaxRecoveryBars     float64         `json:"max_recovery_bars"`
	AvgRecoveryBars     float64         `json:"avg_recovery_bars"`
}

type drawdownState int

const (
	stateIdle drawdownState = iota
	stateTracking
	stateInDrawdown
)

// drawdownDetector walks a curve left to right. A drawdown opens once the curve
// falls TriggerThreshold below the peak and closes when it exceeds that peak.
type drawdownDetector struct {
	opts   DrawdownOptions
	bars   BarEstimator
	state  drawdownState
	peak   CurvePoint
	trough CurvePoint
	events []DrawdownEvent
}

// DetectDrawdowns scans an equity curve and returns its drawdown events in
// chronological order. Events never overlap.
func DetectDrawdowns(curve []EquityPoint, opts DrawdownOptions) DrawdownResult {
	d := &drawdownDetector{
		opts:   opts,
		bars:   NewBarEstimator(opts.BarHours),
		events: make([]DrawdownEvent, 0),
	}

	for _, p := range curve {
		d.step(CurvePoint{Value: p.Cumulative, Date: p.Date, Index: p.Index})
	}
	if d.state == stateInDrawdown {
		d.emit(nil)
	}

	return summarizeDrawdowns(d.events)
}

func (d *drawdownDetector) step(pt CurvePoint) {
	switch d.state {
	case stateIdle:
		if d.opts.StartGate == nil || pt.Value >= *d.opts.StartGate {
			d.peak = pt
			d.state = stateTracking
		}

	case stateTracking:
		if pt.Value > d.peak.Value {
			d.peak = pt
			return
		}
		drop := d.peak.Value - pt.Value
		if drop > 0 && drop >= d.opts.TriggerThreshold {
			d.trough = pt
			d.state = stateInDrawdown
		}

	case stateInDrawdown:
		if pt.Value < d.trough.Value {
			d.trough = pt
			return
		}
		if pt.Value > d.peak.Value {
			recovery := pt
			d.emit(&recovery)
			d.peak = pt
			d.state = stateTracking
		}
	}
}

func (d *drawdownDetector) emit(recovery *CurvePoint) {
	abs := d.peak.Value - d.trough.Value
	ev := DrawdownEvent{
		Peak:             d.peak,
		Trough:           d.trough,
		Recovery:         recovery,
		Absolute:         abs,
		DurationToTrough: d.trough.Index - d.peak.Index,
	}
	if d.peak.Value > 0 {
		ev.Percent = abs / d.peak.Value * 100
	}
	if recovery != nil {
		dur := recovery.Index - d.trough.Index
		bars := d.bars.Bars(recovery.Date.Sub(d.trough.Date))
		ev.DurationToRecovery = &dur
		ev.RecoveryBars = &bars
	}
	d.events = append(d.events, ev)
}

func summarizeDrawdowns(events []DrawdownEvent) DrawdownResult {
	res := DrawdownResult{Events: events, Count: len(events)}
	if len(events) == 0 {
		return res
	}

	var totalAbs, totalPct, totalDur, totalBars float64
	for _, ev := range events {
		totalAbs += ev.Absolute
		totalPct += ev.Percent
		res.MaxAbsolute = math.Max(res.MaxAbsolute, ev.Absolute)
		res.MaxPercent = math.Max(res.MaxPercent, ev.Percent)

		if !ev.Recovered() {
			continue
		}
		res.Recovered++
		totalDur += float64(*ev.DurationToRecovery)
		totalBars += *ev.RecoveryBars
		if *ev.DurationToRecovery > res.MaxRecoveryDuration {
			res.MaxRecoveryDuration = *ev.DurationToRecovery
		}
		res.MaxRecoveryBars = math.Max(res.MaxRecoveryBars, *ev.RecoveryBars)
	}

	res.AvgAbsolute = totalAbs / float64(res.Count)
	res.AvgPercent = totalPct / float64(res.Count)
	if res.Recovered > 0 {
		res.AvgRecoveryDuration = totalDur / float64(res.Recovered)
		res.AvgRecoveryBars = totalBars / float64(res.Recovered)
	}

	return res
}
