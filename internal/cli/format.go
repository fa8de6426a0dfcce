package cli

import (
	"time"

	"tradestat/internal/analytics"
	"tradestat/internal/models"
	"tradestat/pkg/utils"
)

// FormatPips formats a signed pip amount with one decimal.
func FormatPips(v float64) string {
	return utils.FormatSigned(v, 1)
}

// FormatRatio formats an optional ratio.
func FormatRatio(r analytics.Ratio) string {
	return r.String()
}

// FormatPercent formats a percentage.
func FormatPercent(v float64) string {
	return utils.FormatPercent(v)
}

// FormatDate formats a date with the configured layout.
func FormatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return "-"
	}
	if layout == "" {
		layout = "2006-01-02"
	}
	return t.Format(layout)
}

// FormatHold formats a bar count as calendar time.
func FormatHold(bars, barHours float64) string {
	return analytics.FormatBars(bars, barHours)
}

// UnitLabel returns the column label of a unit.
func UnitLabel(u models.Unit) string {
	if u == models.UnitValuePips {
		return "vpips"
	}
	return "pips"
}

// ParseUnit maps a flag value to a unit.
func ParseUnit(s string) (models.Unit, bool) {
	switch s {
	case "pips", "pip", "":
		return models.UnitPips, true
	case "vpips", "value", "value-pips":
		return models.UnitValuePips, true
	default:
		return "", false
	}
}

// TruncateString truncates a string to max length with ellipsis.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
