// Package money handles monetary amounts as integer cents. No monetary
// value is ever represented as a float at any stage.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders cents as a plain decimal string, e.g. 123456 -> "1234.56".
func Format(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Parse converts a human-entered amount string into cents. Accepted forms:
// "1234.56", "1234", "1,234.56". Fractions beyond two decimal places are
// rejected rather than rounded.
func Parse(s string) (int64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return 0, fmt.Errorf("empty amount")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.Exponent() < -2 {
		return 0, fmt.Errorf("amount %q has more than two decimal places", s)
	}

	return d.Mul(decimal.NewFromInt(100)).IntPart(), nil
}

// Sum totals the given amounts.
func Sum(amounts ...int64) int64 {
	var total int64
	for _, a := range amounts {
		total += a
	}
	return total
}

// MeanRounded returns totalCents/count rounded half-up to the nearest cent.
// A zero count yields zero.
func MeanRounded(totalCents int64, count int64) int64 {
	if count == 0 {
		return 0
	}
	return decimal.NewFromInt(totalCents).
		DivRound(decimal.NewFromInt(count), 0).
		IntPart()
}
