package domain

import "context"

// ListingRepository is the abstraction for any kind of database intended to
// persist Listings.
type ListingRepository interface {
	// AddListing fails with ErrAlreadyListed if a listing exists for the key.
	AddListing(ctx context.Context, listing *Listing) error
	// GetListing fails with ErrListingNotFound if no listing exists for the key.
	GetListing(ctx context.Context, key AssetKey) (*Listing, error)
	GetAllListings(ctx context.Context) ([]*Listing, error)
	DeleteListing(ctx context.Context, key AssetKey) error
}

// AuctionRepository is the abstraction for any kind of database intended to
// persist Auctions.
type AuctionRepository interface {
	// AddAuction fails with ErrAlreadyListed if an auction exists for the key.
	AddAuction(ctx context.Context, auction *Auction) error
	// GetAuction fails with ErrAuctionNotFound if no auction exists for the key.
	GetAuction(ctx context.Context, key AssetKey) (*Auction, error)
	GetAllAuctions(ctx context.Context) ([]*Auction, error)
	// UpdateAuction allows to commit multiple changes to the same auction in
	// a transactional way.
	UpdateAuction(
		ctx context.Context, key AssetKey,
		updateFn func(a *Auction) (*Auction, error),
	) error
	DeleteAuction(ctx context.Context, key AssetKey) error
}

// EscrowRepository is the abstraction for any kind of database intended to
// persist Escrows.
type EscrowRepository interface {
	// AddEscrow fails with ErrEscrowExists if an escrow exists for the key.
	AddEscrow(ctx context.Context, escrow *Escrow) error
	// GetEscrow fails with ErrEscrowNotFound if no escrow exists for the key.
	GetEscrow(ctx context.Context, key AssetKey) (*Escrow, error)
	GetAllEscrows(ctx context.Context) ([]*Escrow, error)
	DeleteEscrow(ctx context.Context, key AssetKey) error
}

// SettlementRepository is the abstraction for any kind of database intended
// to persist Settlements.
type SettlementRepository interface {
	// AddSettlement fails with ErrSettlementExists if one exists for the key.
	AddSettlement(ctx context.Context, settlement *Settlement) error
	// GetSettlement fails with ErrSettlementNotFound if none exists for the key.
	GetSettlement(ctx context.Context, key AssetKey) (*Settlement, error)
	GetAllSettlements(ctx context.Context) ([]*Settlement, error)
	DeleteSettlement(ctx context.Context, key AssetKey) error
}

// RoyaltyRepository persists royalty rules and collection overrides.
type RoyaltyRepository interface {
	// GetRoyaltyRule returns nil if no rule is registered for the key.
	GetRoyaltyRule(ctx context.Context, key AssetKey) (*RoyaltyRule, error)
	// SetRoyaltyRule adds or replaces the rule for the key.
	SetRoyaltyRule(ctx context.Context, rule *RoyaltyRule) error
	// GetOverride returns nil if the collection is not overridden.
	GetOverride(ctx context.Context, collection Address) (*RoyaltyOverride, error)
	GetAllOverrides(ctx context.Context) ([]*RoyaltyOverride, error)
	SetOverride(ctx context.Context, override *RoyaltyOverride) error
	DeleteOverride(ctx context.Context, collection Address) error
}

// EventRepository is the append only journal of committed events.
type EventRepository interface {
	// AddEvents assigns the next sequence numbers to the given events.
	AddEvents(ctx context.Context, events ...Event) error
	// GetEventsForAsset returns the events of the given key in insertion order.
	GetEventsForAsset(ctx context.Context, key AssetKey) ([]Event, error)
	GetAllEvents(ctx context.Context) ([]Event, error)
}
