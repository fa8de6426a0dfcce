package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradestat/internal/config"
	apperrors "tradestat/internal/errors"
)

const tradeFeed = `pair;type;dateEN;dateEX;priceEN;priceTP;priceSL;result
EURUSD;Long;02-Jan-24;03-Jan-24;1.1000;1.1050;1.0950;TP
GBPUSD;Short;04-Jan-24;05-Jan-24;1.2700;1.2650;1.2750;SL
USDJPY;Long;08-Feb-24;09-Feb-24;150.00;150.50;149.50;TP
`

type testEnv struct {
	cfg  *config.Config
	feed string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	feed := filepath.Join(dir, "trades.csv")
	require.NoError(t, os.WriteFile(feed, []byte(tradeFeed), 0644))

	return &testEnv{cfg: cfg, feed: feed}
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := NewApp(e.cfg, zerolog.Nop())
	app.Out = &out
	err := app.Execute(context.Background(), append([]string{"--no-color"}, args...))
	return out.String(), err
}

func TestAnalyze_Text(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "analyze", env.feed)
	require.NoError(t, err)

	assert.Contains(t, out, "Trade Statistics")
	assert.Contains(t, out, "Performance (pips)")
	assert.Contains(t, out, "EURUSD")
	assert.Contains(t, out, "2024-02")
	assert.Contains(t, out, "+50.0")
	assert.NotContains(t, out, "\x1b[")
}

func TestAnalyze_JSON(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "analyze", env.feed, "--json")
	require.NoError(t, err)

	var res struct {
		Rows        int `json:"rows"`
		Publication struct {
			Sequence uint64 `json:"sequence"`
			Report   struct {
				InputCount int `json:"input_count"`
				Snapshot   struct {
					TradeCount int `json:"trade_count"`
				} `json:"snapshot"`
			} `json:"report"`
		} `json:"publication"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))

	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, uint64(1), res.Publication.Sequence)
	assert.Equal(t, 3, res.Publication.Report.InputCount)
	assert.Equal(t, 3, res.Publication.Report.Snapshot.TradeCount)
}

func TestAnalyze_ReportsBadRows(t *testing.T) {
	env := newTestEnv(t)
	feed := tradeFeed + "EURUSD;Long;not-a-date;03-Jan-24;1.1000;1.1050;1.0950;TP\n"
	require.NoError(t, os.WriteFile(env.feed, []byte(feed), 0644))

	out, err := env.run(t, "analyze", env.feed)
	require.NoError(t, err)
	assert.Contains(t, out, "row 4")
}

func TestAnalyze_Errors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "analyze", env.feed, "--unit", "dollars")
	assert.Error(t, err)

	_, err = env.run(t, "analyze", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = env.run(t, "analyze")
	assert.Error(t, err)
}

func TestAnalyze_SaveAndHistory(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "analyze", env.feed, "--save")
	require.NoError(t, err)

	out, err := env.run(t, "history", "--json")
	require.NoError(t, err)

	var runs []struct {
		ID         string  `json:"id"`
		Source     string  `json:"source"`
		TradeCount int     `json:"trade_count"`
		NetPips    float64 `json:"net_pips"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "trades.csv", runs[0].Source)
	assert.Equal(t, 3, runs[0].TradeCount)
	assert.InDelta(t, 50.0, runs[0].NetPips, 1e-9)

	out, err = env.run(t, "history", "show", runs[0].ID[:8], "--json")
	require.NoError(t, err)
	var run struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.Equal(t, runs[0].ID, run.ID)

	out, err = env.run(t, "history", "show", "latest", "--unit", "vpips")
	require.NoError(t, err)
	assert.Contains(t, out, "Performance (vpips)")

	out, err = env.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, runs[0].ID[:8])
}

func TestHistory_Prune(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Store.KeepRuns = 0

	for i := 0; i < 3; i++ {
		_, err := env.run(t, "analyze", env.feed, "--save")
		require.NoError(t, err)
	}

	out, err := env.run(t, "history", "prune", "--keep", "1", "--json")
	require.NoError(t, err)

	var res map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res["removed"])

	_, err = env.run(t, "history", "prune", "--keep", "0")
	assert.Error(t, err)
}

func TestHistory_ShowUnknown(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "history", "show", "deadbeef")
	assert.ErrorIs(t, err, apperrors.ErrSnapshotNotFound)

	_, err = env.run(t, "history", "show", "latest")
	assert.ErrorIs(t, err, apperrors.ErrSnapshotNotFound)
}

func TestAnalyze_LogsEngineMetrics(t *testing.T) {
	env := newTestEnv(t)
	var logs bytes.Buffer
	app := NewApp(env.cfg, zerolog.New(&logs).Level(zerolog.DebugLevel))
	app.Out = &bytes.Buffer{}

	require.NoError(t, app.Execute(context.Background(), []string{"analyze", env.feed}))

	assert.Contains(t, logs.String(), "Engine metrics")
	assert.Contains(t, logs.String(), `"published":1`)
	assert.Contains(t, logs.String(), `"superseded":0`)
}

func TestExecute_ClosesStoreOnError(t *testing.T) {
	env := newTestEnv(t)
	app := NewApp(env.cfg, zerolog.Nop())
	app.Out = &bytes.Buffer{}

	err := app.Execute(context.Background(), []string{"history", "show", "deadbeef"})
	assert.ErrorIs(t, err, apperrors.ErrSnapshotNotFound)
	assert.Nil(t, app.store)
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, config.Path(env.cfg.Dir)+"\n", out)

	out, err = env.run(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")

	out, err = env.run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "XAUUSD")

	out, err = env.run(t, "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}
