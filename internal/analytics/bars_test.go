package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBarEstimator_Estimate(t *testing.T) {
	est := NewBarEstimator(4)

	tests := []struct {
		name  string
		entry time.Time
		exit  time.Time
		want  int
	}{
		{"same day", day(2024, time.January, 3), day(2024, time.January, 3), 1},
		{"two weekdays", day(2024, time.January, 1), day(2024, time.January, 3), 12},
		{"over a weekend", day(2024, time.January, 5), day(2024, time.January, 8), 6},
		{"exit before entry", day(2024, time.January, 8), day(2024, time.January, 5), 1},
		{"next day", day(2024, time.January, 2), day(2024, time.January, 3), 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, est.Estimate(tt.entry, tt.exit))
		})
	}
}

func TestNewBarEstimator_Default(t *testing.T) {
	assert.Equal(t, DefaultBarHours, NewBarEstimator(0).BarHours)
	assert.Equal(t, 2.0, NewBarEstimator(0).Bars(8*time.Hour))
}

func TestFormatBars(t *testing.T) {
	assert.Equal(t, "2 days 0 hours", FormatBars(12, 4))
	assert.Equal(t, "12 hours", FormatBars(3, 4))
	assert.Equal(t, "1 days 4 hours", FormatBars(7, 4))
	assert.Equal(t, "0 hours", FormatBars(-2, 4))
}
