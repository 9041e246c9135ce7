package wallet

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrUnsupportedCurrency = errors.New("unsupported currency")

// Static rates expressed in SAR per unit of the currency.
var sarRates = map[string]decimal.Decimal{
	"SAR": decimal.NewFromInt(1),
	"USD": decimal.RequireFromString("3.75"),
	"EUR": decimal.RequireFromString("4.05"),
	"GBP": decimal.RequireFromString("4.75"),
	"AED": decimal.RequireFromString("1.02"),
	"KWD": decimal.RequireFromString("12.20"),
	"BHD": decimal.RequireFromString("9.95"),
	"QAR": decimal.RequireFromString("1.03"),
	"OMR": decimal.RequireFromString("9.74"),
	"EGP": decimal.RequireFromString("0.077"),
}

// Convert changes amount from one currency to another through SAR.
func Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return amount.Round(2), nil
	}

	fromRate, ok := sarRates[from]
	if !ok {
		return decimal.Zero, ErrUnsupportedCurrency
	}
	toRate, ok := sarRates[to]
	if !ok {
		return decimal.Zero, ErrUnsupportedCurrency
	}

	return amount.Mul(fromRate).Div(toRate).Round(2), nil
}
