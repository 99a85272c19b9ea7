package domain

import "github.com/tdex-network/tdex-nft-exchange/pkg/mathutil"

// Payout describes how the payment held for a trade is released when the
// asset reaches the buyer.
type Payout struct {
	Key          AssetKey
	Seller       Address
	Buyer        Address
	PaymentAsset PaymentAsset
	Price        uint64
	FeeReceivers []Address
	FeeAmounts   []uint64
}

// NewPayout builds a payout from a fee split computed against price.
func NewPayout(
	key AssetKey, seller, buyer Address, asset PaymentAsset, price uint64,
	split FeeSplit,
) Payout {
	return Payout{
		Key:          key,
		Seller:       seller,
		Buyer:        buyer,
		PaymentAsset: asset,
		Price:        price,
		FeeReceivers: split.Receivers,
		FeeAmounts:   split.Amounts,
	}
}

func (p Payout) Validate() error {
	if err := p.Key.Validate(); err != nil {
		return err
	}
	if p.Price <= 0 {
		return ErrZeroPrice
	}
	return ValidateFees(p.Price, p.FeeReceivers, p.FeeAmounts)
}

// SellerAmount is the price less all fees.
func (p Payout) SellerAmount() uint64 {
	remainder, _ := mathutil.LessFees(p.Price, p.FeeAmounts...)
	return remainder
}

// Escrow holds a pending trade whose payment is in engine custody while the
// asset is still with the seller. It can be revoked before expiration and
// closed after.
type Escrow struct {
	Payout
	Expiration int64
	OpenedAt   int64
}

// NewEscrow returns a new escrow for the given payout. Expiration must be
// after now.
func NewEscrow(payout Payout, expiration, now int64) (*Escrow, error) {
	if err := payout.Validate(); err != nil {
		return nil, err
	}
	if expiration <= now {
		return nil, ErrInvalidExpiration
	}
	return &Escrow{payout, expiration, now}, nil
}

func (e *Escrow) IsExpired(now int64) bool {
	return now >= e.Expiration
}

// CanBeRevokedBy returns an error if caller is neither the seller nor an
// operator or if the escrow is expired.
func (e *Escrow) CanBeRevokedBy(caller Address, isOperator bool, now int64) error {
	if caller != e.Seller && !isOperator {
		return ErrNotAllowed
	}
	if e.IsExpired(now) {
		return ErrAlreadyExpired
	}
	return nil
}

// CanBeClosed returns an error if the escrow is not expired yet. Anyone can
// close an expired escrow.
func (e *Escrow) CanBeClosed(now int64) error {
	if !e.IsExpired(now) {
		return ErrNotExpiredYet
	}
	return nil
}

// Settlement is the non revocable version of an escrow used for auction
// outcomes. The asset is in engine custody until closed.
type Settlement struct {
	Payout
	AddedAt int64
}

func NewSettlement(payout Payout, now int64) (*Settlement, error) {
	if err := payout.Validate(); err != nil {
		return nil, err
	}
	return &Settlement{payout, now}, nil
}
