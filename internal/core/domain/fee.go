package domain

import (
	"fmt"

	"github.com/tdex-network/tdex-nft-exchange/pkg/mathutil"
)

// FeeSplit is the result of distributing a gross amount among fee receivers.
// Remainder always goes to the seller.
type FeeSplit struct {
	Receivers []Address
	Amounts   []uint64
	Remainder uint64
}

// IsEmpty returns whether the split has no fee receivers.
func (f FeeSplit) IsEmpty() bool {
	return len(f.Receivers) <= 0
}

// TotalFees returns the sum of the fee amounts.
func (f FeeSplit) TotalFees() uint64 {
	total := uint64(0)
	for _, a := range f.Amounts {
		total += a
	}
	return total
}

// ValidateRatios makes sure that receivers and ratios have the same length,
// that receivers are not zero nor repeated, that every ratio is less than the
// basis point denominator and that they don't sum up to more than it.
func ValidateRatios(receivers []Address, ratiosInBp []uint64) error {
	if len(receivers) != len(ratiosInBp) {
		return fmt.Errorf("%w: length not matched", ErrInvalidRatios)
	}

	seen := make(map[Address]struct{})
	sum := uint64(0)
	for i, r := range receivers {
		if r.IsZero() {
			return fmt.Errorf("%w: receiver %d is zero address", ErrInvalidRatios, i)
		}
		if _, ok := seen[r]; ok {
			return fmt.Errorf("%w: duplicated receiver %s", ErrInvalidRatios, r)
		}
		seen[r] = struct{}{}

		ratio := ratiosInBp[i]
		if ratio >= mathutil.BasisPointDenominator {
			return fmt.Errorf(
				"%w: ratio %d must be lower than %d",
				ErrInvalidRatios, ratio, mathutil.BasisPointDenominator,
			)
		}
		sum += ratio
	}
	if sum > mathutil.BasisPointDenominator {
		return fmt.Errorf(
			"%w: ratios sum %d exceeds %d",
			ErrInvalidRatios, sum, mathutil.BasisPointDenominator,
		)
	}
	return nil
}

// Distribute splits gross among receivers by the given basis point ratios. Each
// amount is floor(gross * ratio / 100000), so that the rounding leftover ends
// up in the remainder.
func Distribute(
	gross uint64, receivers []Address, ratiosInBp []uint64,
) (FeeSplit, error) {
	if err := ValidateRatios(receivers, ratiosInBp); err != nil {
		return FeeSplit{}, err
	}

	amounts := make([]uint64, 0, len(ratiosInBp))
	for _, ratio := range ratiosInBp {
		amounts = append(amounts, mathutil.ShareOf(gross, ratio))
	}
	remainder, ok := mathutil.LessFees(gross, amounts...)
	if !ok {
		// Can't happen with validated ratios.
		return FeeSplit{}, ErrInvalidFees
	}

	return FeeSplit{
		Receivers: append([]Address{}, receivers...),
		Amounts:   amounts,
		Remainder: remainder,
	}, nil
}

// ValidateFees checks a precomputed split against the gross price.
func ValidateFees(gross uint64, receivers []Address, amounts []uint64) error {
	if len(receivers) != len(amounts) {
		return fmt.Errorf("%w: length not matched", ErrInvalidFees)
	}
	seen := make(map[Address]struct{})
	for _, r := range receivers {
		if r.IsZero() {
			return fmt.Errorf("%w: zero address receiver", ErrInvalidFees)
		}
		if _, ok := seen[r]; ok {
			return fmt.Errorf("%w: duplicated receiver %s", ErrInvalidFees, r)
		}
		seen[r] = struct{}{}
	}
	if _, ok := mathutil.LessFees(gross, amounts...); !ok {
		return fmt.Errorf("%w: fees exceed price %d", ErrInvalidFees, gross)
	}
	return nil
}
