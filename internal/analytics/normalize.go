package analytics

import (
	"errors"
	"math"
	"sort"

	apperrors "tradestat/internal/errors"
	"tradestat/internal/models"
)

// NormalizeOptions configures trade normalization.
type NormalizeOptions struct {
	Instruments InstrumentTable
	Bars        BarEstimator
}

// Normalize converts raw trades into normalized records sorted by exit date.
// Trades that fail pip conversion are excluded and reported as faults; ties on
// exit date keep input order.
func Normalize(raws []models.RawTrade, opts NormalizeOptions) ([]models.NormalizedTrade, []models.TradeFault) {
	if opts.Instruments == nil {
		opts.Instruments = DefaultInstruments()
	}

	trades := make([]models.NormalizedTrade, 0, len(raws))
	var faults []models.TradeFault

	for i, raw := range raws {
		nt, err := normalizeTrade(i, raw, opts)
		if err != nil {
			faults = append(faults, toFault(i, raw.Pair, err))
			continue
		}
		trades = append(trades, nt)
	}

	sort.SliceStable(trades, func(a, b int) bool {
		return trades[a].ExitDate.Before(trades[b].ExitDate)
	})

	return trades, faults
}

func normalizeTrade(index int, raw models.RawTrade, opts NormalizeOptions) (models.NormalizedTrade, error) {
	pips, err := ConvertPips(raw, opts.Instruments)
	if err != nil {
		var te *apperrors.TradeError
		if errors.As(err, &te) {
			te.Index = index
		}
		return models.NormalizedTrade{}, err
	}

	isWin := raw.Outcome == models.HitTarget

	return models.NormalizedTrade{
		RawTrade:  raw,
		Index:     index,
		IsWin:     isWin,
		Pips:      signByOutcome(pips.Pips, isWin),
		ValuePips: signByOutcome(pips.ValuePips, isWin),
		MonthKey:  raw.ExitDate.Format("2006-01"),
		BarsHeld:  opts.Bars.Estimate(raw.EntryDate, raw.ExitDate),
	}, nil
}

// signByOutcome keeps the magnitude and forces the sign to agree with the outcome.
func signByOutcome(v float64, isWin bool) float64 {
	if isWin {
		return math.Abs(v)
	}
	return -math.Abs(v)
}

func toFault(index int, pair string, err error) models.TradeFault {
	fault := models.TradeFault{
		Index:   index,
		Pair:    pair,
		Kind:    apperrors.Kind(err),
		Message: err.Error(),
	}
	var te *apperrors.TradeError
	if errors.As(err, &te) {
		fault.Field = te.Field
	}
	return fault
}
