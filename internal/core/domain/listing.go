package domain

// Listing is a fixed-price sale offer for a single asset unit. The asset stays
// with the seller, the engine only holds the transfer approval.
type Listing struct {
	Key          AssetKey
	Seller       Address
	PaymentAsset PaymentAsset
	Price        uint64
	PlacedAt     int64
}

// NewListing returns a new listing after checking that price is not zero.
func NewListing(
	key AssetKey, seller Address, asset PaymentAsset, price uint64, placedAt int64,
) (*Listing, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if price <= 0 {
		return nil, ErrZeroPrice
	}
	return &Listing{
		Key:          key,
		Seller:       seller,
		PaymentAsset: asset,
		Price:        price,
		PlacedAt:     placedAt,
	}, nil
}

// CanBeCancelledBy returns an error if caller is neither the seller nor an
// operator.
func (l *Listing) CanBeCancelledBy(caller Address, isOperator bool) error {
	if caller != l.Seller && !isOperator {
		return ErrNotAllowed
	}
	return nil
}

// Match checks that the given payment exactly matches the listing.
func (l *Listing) Match(asset PaymentAsset, amount uint64) error {
	if !l.PaymentAsset.Equal(asset) {
		return ErrPaymentAssetMismatch
	}
	if amount != l.Price {
		return ErrPriceMismatch
	}
	return nil
}
