package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tradestat/internal/errors"
	"tradestat/internal/models"
)

const feed = `# exported 2024-04-01
pair;type;dateEN;dateEX;priceEN;priceTP;priceSL;result
EURUSD;Buy;04-Mar-24;05-Mar-24;1.10000;1.10500;1.09500;TP
usdjpy ; Sell ; 2024-03-19 ; 2024-03-20 ; 150.000 ; 149.500 ; 150.300 ; SL

XAUUSD;Long;5-Apr-24;08-04-24;2000,00;2010,00;1995,00;tp;
`

func TestLoad(t *testing.T) {
	res, err := Load(strings.NewReader(feed))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Rows)
	require.Empty(t, res.Faults)
	require.Len(t, res.Trades, 3)

	first := res.Trades[0]
	assert.Equal(t, "EURUSD", first.Pair)
	assert.Equal(t, models.Long, first.Direction)
	assert.Equal(t, time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC), first.EntryDate)
	assert.True(t, decimal.RequireFromString("1.105").Equal(first.TakeProfitPrice))
	assert.Equal(t, models.HitTarget, first.Outcome)

	second := res.Trades[1]
	assert.Equal(t, "USDJPY", second.Pair)
	assert.Equal(t, models.Short, second.Direction)
	assert.Equal(t, time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC), second.ExitDate)
	assert.Equal(t, models.HitStop, second.Outcome)

	third := res.Trades[2]
	assert.Equal(t, time.Date(2024, time.April, 8, 0, 0, 0, 0, time.UTC), third.ExitDate)
	assert.True(t, decimal.RequireFromString("1995").Equal(third.StopLossPrice))
}

func TestLoad_WithoutHeader(t *testing.T) {
	res, err := Load(strings.NewReader("GBPUSD;Sell;12-Feb-24;12-Feb-24;1.27000;1.26500;1.27500;TP\n"))
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, "GBPUSD", res.Trades[0].Pair)
}

func TestLoad_Faults(t *testing.T) {
	input := strings.Join([]string{
		"EURUSD;Hold;04-Mar-24;05-Mar-24;1.1;1.2;1.0;TP",
		"EURUSD;Buy;31-Feb-24;05-Mar-24;1.1;1.2;1.0;TP",
		"EURUSD;Buy;06-Mar-24;05-Mar-24;1.1;abc;1.0;BE",
		";Buy;04-Mar-24",
		"EURUSD;Buy;04-Mar-24;05-Mar-24;1.1;1.2;1.0;SL",
	}, "\n")

	res, err := Load(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 5, res.Rows)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, models.HitStop, res.Trades[0].Outcome)

	byRow := map[int][]LoadFault{}
	for _, f := range res.Faults {
		byRow[f.Row] = append(byRow[f.Row], f)
	}

	require.Len(t, byRow[1], 1)
	assert.ErrorIs(t, byRow[1][0], apperrors.ErrInvalidDirection)

	require.Len(t, byRow[2], 1)
	assert.Equal(t, "dateEN", byRow[2][0].Field)
	assert.ErrorIs(t, byRow[2][0], apperrors.ErrInvalidDate)

	fields := []string{}
	for _, f := range byRow[3] {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"dateEX", "priceTP", "result"}, fields)

	assert.Len(t, byRow[4], 6)
	assert.ErrorIs(t, byRow[4][0], apperrors.ErrInvalidInstrument)
	assert.Contains(t, byRow[4][0].Error(), "row 4: pair")
}

func TestLoad_Empty(t *testing.T) {
	for _, input := range []string{"", "# nothing\n\n", "pair;type;dateEN;dateEX;priceEN;priceTP;priceSL;result\n"} {
		res, err := Load(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, 0, res.Rows)
		assert.Empty(t, res.Trades)
		assert.NotNil(t, res.Faults)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, os.WriteFile(path, []byte(feed), 0o644))

	res, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, res.Trades, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
