package domain

// Auction is an open-bid sale for a single asset unit. The expiration is fixed
// at placement. The current bid is held in engine custody until the bidder is
// outbid, the auction is cancelled or finalized.
type Auction struct {
	Key          AssetKey
	Seller       Address
	PaymentAsset PaymentAsset
	InitialPrice uint64
	Bidder       Address
	BidPrice     uint64
	BidAt        int64
	PlacedAt     int64
	Expiration   int64
}

// NewAuction returns a new auction with no bidder.
func NewAuction(
	key AssetKey, seller Address, asset PaymentAsset,
	initialPrice uint64, placedAt, expiration int64,
) (*Auction, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if expiration <= placedAt {
		return nil, ErrInvalidExpiration
	}
	return &Auction{
		Key:          key,
		Seller:       seller,
		PaymentAsset: asset,
		InitialPrice: initialPrice,
		PlacedAt:     placedAt,
		Expiration:   expiration,
	}, nil
}

func (a *Auction) HasBidder() bool {
	return !a.Bidder.IsZero()
}

func (a *Auction) IsExpired(now int64) bool {
	return now >= a.Expiration
}

// CurrentPrice is the amount that the next bid must exceed.
func (a *Auction) CurrentPrice() uint64 {
	if a.HasBidder() {
		return a.BidPrice
	}
	return a.InitialPrice
}

// CanBeCancelledBy returns an error if caller is neither the seller nor an
// operator.
func (a *Auction) CanBeCancelledBy(caller Address, isOperator bool) error {
	if caller != a.Seller && !isOperator {
		return ErrNotAllowed
	}
	return nil
}

// Bid replaces the current bid with the given one and returns the previous
// bidder and amount, if any, that must be refunded.
func (a *Auction) Bid(
	bidder Address, asset PaymentAsset, amount uint64, now int64,
) (Address, uint64, error) {
	if !a.PaymentAsset.Equal(asset) {
		return ZeroAddress, 0, ErrPaymentAssetMismatch
	}
	if a.IsExpired(now) {
		return ZeroAddress, 0, ErrAlreadyExpired
	}
	if amount <= a.CurrentPrice() {
		return ZeroAddress, 0, ErrBidTooLow
	}

	prevBidder, prevBid := a.Bidder, a.BidPrice
	a.Bidder = bidder
	a.BidPrice = amount
	a.BidAt = now
	return prevBidder, prevBid, nil
}

// CanBeFinalizedBy checks, in order, the caller, the presence of a bidder and
// the expiration.
func (a *Auction) CanBeFinalizedBy(
	caller Address, isOperator bool, now int64,
) error {
	if caller != a.Seller && !isOperator {
		return ErrNotAllowed
	}
	if !a.HasBidder() {
		return ErrNoBidder
	}
	if !a.IsExpired(now) {
		return ErrNotExpiredYet
	}
	return nil
}
