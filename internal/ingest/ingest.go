// Package ingest reads closed-trade exports into raw trades.
//
// The feed is a semicolon-separated file with the columns
// pair;type;dateEN;dateEX;priceEN;priceTP;priceSL;result. Lines starting with
// '#' are comments. The header row is optional.
package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	apperrors "tradestat/internal/errors"
	"tradestat/internal/models"
)

// Columns is the column order of the trade feed.
var Columns = []string{"pair", "type", "dateEN", "dateEX", "priceEN", "priceTP", "priceSL", "result"}

// dateLayouts are tried in order.
var dateLayouts = []string{
	"02-Jan-06",
	"2-Jan-06",
	"02-Jan-2006",
	"02-01-06",
	"02-01-2006",
	"2006-01-02",
}

type row struct {
	Pair       string `csv:"pair"`
	Type       string `csv:"type"`
	EntryDate  string `csv:"dateEN"`
	ExitDate   string `csv:"dateEX"`
	EntryPrice string `csv:"priceEN"`
	TakeProfit string `csv:"priceTP"`
	StopLoss   string `csv:"priceSL"`
	Result     string `csv:"result"`
}

// LoadFault describes a field that kept a row out of the trade set.
// Row is the 1-based data row, not counting the header or comments.
type LoadFault struct {
	Row   int
	Field string
	Err   error
}

func (f LoadFault) Error() string {
	return fmt.Sprintf("row %d: %s: %v", f.Row, f.Field, f.Err)
}

func (f LoadFault) Unwrap() error {
	return f.Err
}

// Result is the outcome of loading a feed.
type Result struct {
	Rows   int
	Trades []models.RawTrade
	Faults []LoadFault
}

// LoadFile loads the trade feed at path.
func LoadFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open trade file")
	}
	defer f.Close()

	return Load(f)
}

// Load parses a trade feed. Rows that fail to parse are reported as faults;
// the returned error is reserved for unreadable input.
func Load(r io.Reader) (*Result, error) {
	text, err := prepare(r)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read trade file")
	}

	res := &Result{Trades: make([]models.RawTrade, 0), Faults: make([]LoadFault, 0)}
	if text == "" {
		return res, nil
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = ';'
	reader.LazyQuotes = true

	var rows []*row
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse trade file")
	}

	res.Rows = len(rows)
	for i, rw := range rows {
		trade, faults := rw.toTrade(i + 1)
		if len(faults) > 0 {
			res.Faults = append(res.Faults, faults...)
			continue
		}
		res.Trades = append(res.Trades, trade)
	}

	return res, nil
}

// prepare drops comments and blank lines, squares every line up to the column
// count and makes sure a header row is present.
func prepare(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, ";")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		for len(fields) < len(Columns) {
			fields = append(fields, "")
		}
		lines = append(lines, strings.Join(fields[:len(Columns)], ";"))
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", nil
	}

	if !strings.EqualFold(strings.SplitN(lines[0], ";", 2)[0], Columns[0]) {
		lines = append([]string{strings.Join(Columns, ";")}, lines...)
	}
	if len(lines) == 1 {
		return "", nil
	}
	return strings.Join(lines, "\n") + "\n", nil
}

func (r *row) toTrade(rowNum int) (models.RawTrade, []LoadFault) {
	var faults []LoadFault
	fail := func(field string, err error) {
		faults = append(faults, LoadFault{Row: rowNum, Field: field, Err: err})
	}

	t := models.RawTrade{Pair: strings.ToUpper(r.Pair)}
	if t.Pair == "" {
		fail("pair", fmt.Errorf("%w: missing value", apperrors.ErrInvalidInstrument))
	}

	if dir, ok := models.ParseDirection(r.Type); ok {
		t.Direction = dir
	} else {
		fail("type", fmt.Errorf("%w: %q", apperrors.ErrInvalidDirection, r.Type))
	}

	var err error
	if t.EntryDate, err = parseDate(r.EntryDate); err != nil {
		fail("dateEN", err)
	}
	if t.ExitDate, err = parseDate(r.ExitDate); err != nil {
		fail("dateEX", err)
	}
	if !t.EntryDate.IsZero() && !t.ExitDate.IsZero() && t.ExitDate.Before(t.EntryDate) {
		fail("dateEX", fmt.Errorf("%w: exit %s before entry %s", apperrors.ErrInvalidDate, r.ExitDate, r.EntryDate))
	}

	if t.EntryPrice, err = parsePrice(r.EntryPrice); err != nil {
		fail("priceEN", err)
	}
	if t.TakeProfitPrice, err = parsePrice(r.TakeProfit); err != nil {
		fail("priceTP", err)
	}
	if t.StopLossPrice, err = parsePrice(r.StopLoss); err != nil {
		fail("priceSL", err)
	}

	if outcome, ok := models.ParseOutcome(r.Result); ok {
		t.Outcome = outcome
	} else {
		fail("result", fmt.Errorf("%w: %q", apperrors.ErrInvalidOutcome, r.Result))
	}

	return t, faults
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: missing value", apperrors.ErrInvalidDate)
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidDate, s)
}

// parsePrice accepts both '.' and ',' as decimal separator.
func parsePrice(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: missing value", apperrors.ErrInvalidPrice)
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", apperrors.ErrInvalidPrice, s)
	}
	return d, nil
}
