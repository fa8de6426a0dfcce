package analytics

import "tradestat/internal/models"

// DefaultMinStreakLength is the shortest run reported as a streak.
const DefaultMinStreakLength = 2

// StreakKind distinguishes winning from losing runs.
type StreakKind string

const (
	StreakWin  StreakKind = "Win"
	StreakLoss StreakKind = "Loss"
)

// StreakEpisode is a maximal run of same-outcome trades. StartIndex and EndIndex
// are inclusive positions in the time-ordered trade sequence.
type StreakEpisode struct {
	Kind       StreakKind               `json:"kind"`
	Length     int                      `json:"length"`
	StartIndex int                      `json:"start_index"`
	EndIndex   int                      `json:"end_index"`
	Trades     []models.NormalizedTrade `json:"-"`
}

// StreakCounts is the histogram for one streak kind.
// Cumulative[n] counts runs of length >= n, Exact[n] runs of length exactly n.
type StreakCounts struct {
	Cumulative map[int]int `json:"cumulative"`
	Exact      map[int]int `json:"exact"`
	Longest    int         `json:"longest"`
}

// StreakResult holds both histograms and the episode list.
type StreakResult struct {
	MinLength int             `json:"min_length"`
	Win       StreakCounts    `json:"win"`
	Loss      StreakCounts    `json:"loss"`
	Episodes  []StreakEpisode `json:"episodes"`
}

// LongestWin returns the longest winning run counted.
func (r StreakResult) LongestWin() int { return r.Win.Longest }

// LongestLoss returns the longest losing run counted.
func (r StreakResult) LongestLoss() int { return r.Loss.Longest }

// AnalyzeStreaks scans the win/loss sequence of time-ordered trades.
func AnalyzeStreaks(trades []models.NormalizedTrade, minLength int) StreakResult {
	if minLength < 1 {
		minLength = DefaultMinStreakLength
	}

	res := StreakResult{
		MinLength: minLength,
		Win:       newStreakCounts(),
		Loss:      newStreakCounts(),
		Episodes:  make([]StreakEpisode, 0),
	}

	start := 0
	for i := 1; i <= len(trades); i++ {
		if i < len(trades) && trades[i].IsWin == trades[start].IsWin {
			continue
		}
		res.close(trades, start, i-1)
		start = i
	}

	return res
}

func (r *StreakResult) close(trades []models.NormalizedTrade, start, end int) {
	length := end - start + 1
	if length < r.MinLength {
		return
	}

	kind, counts := StreakLoss, &r.Loss
	if trades[start].IsWin {
		kind, counts = StreakWin, &r.Win
	}

	counts.Exact[length]++
	for n := r.MinLength; n <= length; n++ {
		counts.Cumulative[n]++
	}
	if length > counts.Longest {
		counts.Longest = length
	}

	r.Episodes = append(r.Episodes, StreakEpisode{
		Kind:       kind,
		Length:     length,
		StartIndex: start,
		EndIndex:   end,
		Trades:     trades[start : end+1],
	})
}

func newStreakCounts() StreakCounts {
	return StreakCounts{
		Cumulative: make(map[int]int),
		Exact:      make(map[int]int),
	}
}
