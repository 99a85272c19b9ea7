package ports

import (
	"context"

	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
)

// RoyaltyResolver computes the royalty fees to be paid when the given asset
// unit is sold at the given price. An empty split means no royalty.
type RoyaltyResolver interface {
	GetRoyalty(
		ctx context.Context, key domain.AssetKey, price uint64,
	) (domain.FeeSplit, error)
}
