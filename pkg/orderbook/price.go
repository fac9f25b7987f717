package orderbook

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of minor units per major unit (cents per dollar).
const (
	PriceScale = 100
	priceExp   = 2
)

var (
	priceScale = decimal.NewFromInt(PriceScale)
	maxPrice   = decimal.NewFromInt(math.MaxInt64)
)

// ParsePrice converts a major-unit decimal string such as "187.60" into minor
// units. Values with more precision than one minor unit are rejected rather
// than rounded.
func ParsePrice(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}
	return PriceFromDecimal(d)
}

func PriceFromDecimal(d decimal.Decimal) (int64, error) {
	minor := d.Mul(priceScale)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s is finer than one minor unit", ErrInvalidPrice, d)
	}
	if !minor.IsPositive() {
		return 0, fmt.Errorf("%w: %s must be positive", ErrInvalidPrice, d)
	}
	if minor.GreaterThan(maxPrice) {
		return 0, fmt.Errorf("%w: %s overflows int64 minor units", ErrInvalidPrice, d)
	}
	return minor.IntPart(), nil
}

// FormatPrice renders minor units as a major-unit string, e.g. 18760 -> "187.60".
func FormatPrice(p int64) string {
	return decimal.New(p, -priceExp).StringFixed(priceExp)
}
