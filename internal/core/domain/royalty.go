package domain

// RoyaltyRule holds the fee receivers and ratios of an asset unit, together
// with the rights holder that registered them.
type RoyaltyRule struct {
	Key          AssetKey
	RightsHolder Address
	Receivers    []Address
	RatiosInBp   []uint64
	UpdatedAt    int64
}

func NewRoyaltyRule(
	key AssetKey, rightsHolder Address, receivers []Address, ratiosInBp []uint64,
	now int64,
) (*RoyaltyRule, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateRatios(receivers, ratiosInBp); err != nil {
		return nil, err
	}
	return &RoyaltyRule{
		Key:          key,
		RightsHolder: rightsHolder,
		Receivers:    append([]Address{}, receivers...),
		RatiosInBp:   append([]uint64{}, ratiosInBp...),
		UpdatedAt:    now,
	}, nil
}

// Split distributes price according to the rule.
func (r *RoyaltyRule) Split(price uint64) (FeeSplit, error) {
	return Distribute(price, r.Receivers, r.RatiosInBp)
}

// RoyaltyOverride points a whole collection to a royalty resolver.
type RoyaltyOverride struct {
	Collection Address
	Resolver   Address
	Operator   Address
	UpdatedAt  int64
}
