package analytics

import (
	"fmt"
	"math"
	"time"
)

// DefaultBarHours is the bar size used to express holding time.
const DefaultBarHours = 4.0

// BarEstimator converts a calendar interval into a number of bars, skipping weekend hours.
type BarEstimator struct {
	BarHours float64
}

// NewBarEstimator creates a BarEstimator; non-positive sizes fall back to DefaultBarHours.
func NewBarEstimator(barHours float64) BarEstimator {
	if barHours <= 0 {
		barHours = DefaultBarHours
	}
	return BarEstimator{BarHours: barHours}
}

// Estimate returns the number of bars held between entry and exit dates, at least 1.
// Day-precision dates are placed at midday UTC.
func (e BarEstimator) Estimate(entryDate, exitDate time.Time) int {
	if sameDay(entryDate, exitDate) {
		return 1
	}

	entry := midday(entryDate)
	exit := midday(exitDate)
	hours := exit.Sub(entry).Hours()

	for d := startOfDay(entry); !d.After(startOfDay(exit)); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			continue
		}
		overlapStart := maxTime(d, entry)
		overlapEnd := minTime(d.AddDate(0, 0, 1), exit)
		if overlapEnd.After(overlapStart) {
			hours -= overlapEnd.Sub(overlapStart).Hours()
		}
	}

	bars := int(math.Round(hours / e.barHours()))
	if bars < 1 {
		return 1
	}
	return bars
}

// Bars converts an elapsed duration into fractional bars without weekend adjustment.
func (e BarEstimator) Bars(d time.Duration) float64 {
	return d.Hours() / e.barHours()
}

func (e BarEstimator) barHours() float64 {
	if e.BarHours <= 0 {
		return DefaultBarHours
	}
	return e.BarHours
}

// FormatBars renders a bar count as "N days H hours" or "H hours".
func FormatBars(bars, barHours float64) string {
	if barHours <= 0 {
		barHours = DefaultBarHours
	}
	total := math.Max(0, bars) * barHours
	days := int(math.Floor(total / 24))
	hours := int(math.Round(math.Mod(total, 24)))
	if days > 0 {
		return fmt.Sprintf("%d days %d hours", days, hours)
	}
	return fmt.Sprintf("%d hours", hours)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func midday(t time.Time) time.Time {
	return startOfDay(t).Add(12 * time.Hour)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
