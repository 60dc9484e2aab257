// Package units converts fixed-point token integers into display values.
package units

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ToDecimal scales a raw integer amount by 10^decimals.
func ToDecimal(value *big.Int, decimals uint8) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -int32(decimals))
}

// ToFloat scales a raw integer amount by 10^decimals and returns a float64.
// Precision beyond float64 is lost; results are for display and ratios only.
func ToFloat(value *big.Int, decimals uint8) float64 {
	f, _ := ToDecimal(value, decimals).Float64()
	return f
}

// FormatUSD renders a dollar amount rounded to cents.
func FormatUSD(value float64) string {
	return "$" + decimal.NewFromFloat(value).StringFixed(2)
}

// FormatPercent renders a ratio as a percentage with two decimals.
func FormatPercent(ratio float64) string {
	return decimal.NewFromFloat(ratio).Shift(2).StringFixed(2) + "%"
}
