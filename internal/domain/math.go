package domain

import (
	"github.com/shopspring/decimal"
)

// Display thresholds. Balances and values below these are clamped to zero so
// dust does not clutter the output.
var (
	minDisplayBalance = decimal.New(1, -6)  // 1e-6
	minDisplayValue   = decimal.New(1, -2)  // $0.01
)

// SafeParse parses a string into a decimal, returning zero for invalid or empty input.
func SafeParse(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ConvertToDecimal converts a raw integer token amount to a human-scale balance:
// raw / 10^decimals. Raw amounts are parsed as arbitrary-precision decimals, so
// large integer strings never truncate. Invalid input yields zero.
func ConvertToDecimal(raw string, decimals int) decimal.Decimal {
	return SafeParse(raw).Shift(int32(-decimals))
}

// FormatBalance converts a raw amount like ConvertToDecimal but clamps results
// below the minimum display threshold (1e-6) to zero.
func FormatBalance(raw string, decimals int) decimal.Decimal {
	balance := ConvertToDecimal(raw, decimals)
	if balance.LessThan(minDisplayBalance) {
		return decimal.Zero
	}
	return balance
}

// CalculateValue computes balance * price in USD, clamping results below the
// minimum display value ($0.01) to zero.
func CalculateValue(balance, price decimal.Decimal) decimal.Decimal {
	value := balance.Mul(price)
	if value.LessThan(minDisplayValue) {
		return decimal.Zero
	}
	return value
}
