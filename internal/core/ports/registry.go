package ports

import (
	"context"

	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
)

// AssetRegistry is the ownership ledger of non-fungible asset units. The
// engine never guesses ownership, it always queries the registry.
type AssetRegistry interface {
	// OwnerOf returns the current owner of the given unit.
	OwnerOf(ctx context.Context, key domain.AssetKey) (domain.Address, error)
	// CreatorOf returns the account that minted the given unit.
	CreatorOf(ctx context.Context, key domain.AssetKey) (domain.Address, error)
	// IsApprovedOrOwner returns whether spender is the owner of the unit, is
	// approved for it or is an operator approved for all the owner's units.
	IsApprovedOrOwner(
		ctx context.Context, spender domain.Address, key domain.AssetKey,
	) (bool, error)
	// Transfer moves the unit from -> to. It fails if operator is not
	// approved or owner at call time.
	Transfer(
		ctx context.Context, operator domain.Address, key domain.AssetKey,
		from, to domain.Address,
	) error
}
