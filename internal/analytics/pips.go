package analytics

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "tradestat/internal/errors"
	"tradestat/internal/models"
)

var pairPattern = regexp.MustCompile(`^[A-Z]{6}$`)

var (
	scaleJPY    = decimal.NewFromInt(100)
	scaleMetals = decimal.NewFromInt(10)
	scaleMajors = decimal.NewFromInt(10000)
)

// ScaleFactor returns the price-difference to pip multiplier for pair.
func ScaleFactor(pair string) decimal.Decimal {
	switch {
	case strings.HasSuffix(pair, "JPY"):
		return scaleJPY
	case pair == "XAUUSD":
		return scaleMetals
	default:
		return scaleMajors
	}
}

// ConvertPips converts the realized price movement of a trade into pips and value pips.
// The returned error is a *errors.TradeError wrapping ErrInvalidInstrument or ErrInvalidPrice.
func ConvertPips(t models.RawTrade, table InstrumentTable) (models.Dual[float64], error) {
	if !pairPattern.MatchString(t.Pair) {
		return models.Dual[float64]{}, apperrors.NewTradeError(0, t.Pair, "pair", apperrors.ErrInvalidInstrument)
	}

	for _, p := range []struct {
		field string
		value decimal.Decimal
	}{
		{"entry_price", t.EntryPrice},
		{"take_profit_price", t.TakeProfitPrice},
		{"stop_loss_price", t.StopLossPrice},
	} {
		if p.value.Sign() <= 0 {
			return models.Dual[float64]{}, apperrors.NewTradeError(0, t.Pair, p.field, apperrors.ErrInvalidPrice)
		}
	}

	exit := t.StopLossPrice
	if t.Outcome == models.HitTarget {
		exit = t.TakeProfitPrice
	}

	diff := exit.Sub(t.EntryPrice)
	if t.Direction == models.Short {
		diff = t.EntryPrice.Sub(exit)
	}

	pips := diff.Mul(ScaleFactor(t.Pair))
	valuePips := pips.Mul(decimal.NewFromFloat(table.Multiplier(t.Pair)))

	return models.Dual[float64]{
		Pips:      pips.InexactFloat64(),
		ValuePips: valuePips.InexactFloat64(),
	}, nil
}
