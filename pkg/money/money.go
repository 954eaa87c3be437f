// Package money formats and parses rupee amounts.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const currencyPrefix = "Rs."

// Format renders an amount as "Rs. 12.00".
func Format(amount decimal.Decimal) string {
	return fmt.Sprintf("%s %s", currencyPrefix, amount.StringFixed(2))
}

// Parse accepts plain numbers and strings with an optional currency prefix.
func Parse(value string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	trimmed = strings.TrimPrefix(trimmed, currencyPrefix)
	trimmed = strings.TrimPrefix(trimmed, "Rs")
	trimmed = strings.ReplaceAll(strings.TrimSpace(trimmed), ",", "")
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	return decimal.NewFromString(trimmed)
}

// FromAny converts a decoded JSON value into an amount. It reports false for
// values that carry no amount.
func FromAny(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return v, true
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case string:
		amount, err := Parse(v)
		if err != nil {
			return decimal.Zero, false
		}
		return amount, true
	case fmt.Stringer:
		amount, err := Parse(v.String())
		if err != nil {
			return decimal.Zero, false
		}
		return amount, true
	}
	return decimal.Zero, false
}

// FromCents converts an integer cent amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Shift(-2)
}

// ToCents rounds an amount to whole cents.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
