package mathutil

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ToDecimal converts an uint64 amount into a decimal.Decimal without loss.
func ToDecimal(x uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(x), 0)
}

// Add takes two uint64 numbers and sum them x + y and returns the result as decimal.Decimal
func Add(x, y uint64) decimal.Decimal {
	return ToDecimal(x).Add(ToDecimal(y))
}

// Sub takes two uint64 numbers and subtract them x - y and returns the result as decimal.Decimal
func Sub(x, y uint64) decimal.Decimal {
	return ToDecimal(x).Sub(ToDecimal(y))
}

// Mul takes two uint64 numbers and multiply them x * y and returns the result as decimal.Decimal
func Mul(x, y uint64) decimal.Decimal {
	return ToDecimal(x).Mul(ToDecimal(y))
}

// Sum returns the sum of the given amounts as decimal.Decimal, so that it
// never overflows.
func Sum(amounts ...uint64) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(ToDecimal(a))
	}
	return total
}

// FitsUint64 returns whether the given non negative integral decimal can be
// represented as uint64.
func FitsUint64(d decimal.Decimal) bool {
	if d.IsNegative() {
		return false
	}
	return d.BigInt().IsUint64()
}
