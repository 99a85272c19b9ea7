package mathutil

import (
	"github.com/shopspring/decimal"
)

// BasisPointDenominator is the denominator of every ratio expressed in basis
// points (ie. 2.5% = 2500).
const BasisPointDenominator = uint64(100000)

var bpDenominator = ToDecimal(BasisPointDenominator)

// ShareOf returns floor(amount * ratioInBp / 100000). The result never exceeds
// amount as long as ratioInBp <= 100000.
func ShareOf(amount, ratioInBp uint64) uint64 {
	share := Mul(amount, ratioInBp).Div(bpDenominator).Floor()
	return share.BigInt().Uint64()
}

// LessFees subtracts the given fee amounts from amount and returns the
// remainder. It returns false if the fees exceed the amount.
func LessFees(amount uint64, fees ...uint64) (uint64, bool) {
	remainder := ToDecimal(amount).Sub(Sum(fees...))
	if remainder.LessThan(decimal.Zero) {
		return 0, false
	}
	return remainder.BigInt().Uint64(), true
}
