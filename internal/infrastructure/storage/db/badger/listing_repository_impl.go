package dbbadger

import (
	"context"

	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type listingRepositoryImpl struct {
	db *RepoManager
}

func (r listingRepositoryImpl) AddListing(
	ctx context.Context, listing *domain.Listing,
) error {
	if err := r.db.insert(ctx, listing.Key.String(), *listing); err != nil {
		if err == badgerhold.ErrKeyExists {
			return domain.ErrAlreadyListed
		}
		return err
	}
	return nil
}

func (r listingRepositoryImpl) GetListing(
	ctx context.Context, key domain.AssetKey,
) (*domain.Listing, error) {
	var listing domain.Listing
	if err := r.db.get(ctx, key.String(), &listing); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrListingNotFound
		}
		return nil, err
	}
	return &listing, nil
}

func (r listingRepositoryImpl) GetAllListings(
	ctx context.Context,
) ([]*domain.Listing, error) {
	var rows []domain.Listing
	if err := r.db.find(ctx, &rows, nil); err != nil {
		return nil, err
	}
	listings := make([]*domain.Listing, 0, len(rows))
	for i := range rows {
		listings = append(listings, &rows[i])
	}
	return listings, nil
}

func (r listingRepositoryImpl) DeleteListing(
	ctx context.Context, key domain.AssetKey,
) error {
	return r.db.delete(ctx, key.String(), domain.Listing{})
}
