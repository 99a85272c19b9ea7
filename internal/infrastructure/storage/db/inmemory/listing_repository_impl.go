package inmemory

import (
	"context"

	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
)

type listingRepositoryImpl struct {
	store *table[domain.Listing]
}

// NewListingRepositoryImpl returns a new inmemory ListingRepository
// implementation.
func NewListingRepositoryImpl() domain.ListingRepository {
	return &listingRepositoryImpl{newTable[domain.Listing]()}
}

func (r *listingRepositoryImpl) AddListing(
	ctx context.Context, listing *domain.Listing,
) error {
	if !r.store.insert(ctx, listing.Key.String(), *listing) {
		return domain.ErrAlreadyListed
	}
	return nil
}

func (r *listingRepositoryImpl) GetListing(
	_ context.Context, key domain.AssetKey,
) (*domain.Listing, error) {
	listing, ok := r.store.get(key.String())
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return &listing, nil
}

func (r *listingRepositoryImpl) GetAllListings(
	_ context.Context,
) ([]*domain.Listing, error) {
	rows := r.store.all()
	listings := make([]*domain.Listing, 0, len(rows))
	for i := range rows {
		listings = append(listings, &rows[i])
	}
	return listings, nil
}

func (r *listingRepositoryImpl) DeleteListing(
	ctx context.Context, key domain.AssetKey,
) error {
	r.store.delete(ctx, key.String())
	return nil
}
