package inmemory

import (
	"context"

	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
)

type auctionRepositoryImpl struct {
	store *table[domain.Auction]
}

// NewAuctionRepositoryImpl returns a new inmemory AuctionRepository
// implementation.
func NewAuctionRepositoryImpl() domain.AuctionRepository {
	return &auctionRepositoryImpl{newTable[domain.Auction]()}
}

func (r *auctionRepositoryImpl) AddAuction(
	ctx context.Context, auction *domain.Auction,
) error {
	if !r.store.insert(ctx, auction.Key.String(), *auction) {
		return domain.ErrAlreadyListed
	}
	return nil
}

func (r *auctionRepositoryImpl) GetAuction(
	_ context.Context, key domain.AssetKey,
) (*domain.Auction, error) {
	auction, ok := r.store.get(key.String())
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return &auction, nil
}

func (r *auctionRepositoryImpl) GetAllAuctions(
	_ context.Context,
) ([]*domain.Auction, error) {
	rows := r.store.all()
	auctions := make([]*domain.Auction, 0, len(rows))
	for i := range rows {
		auctions = append(auctions, &rows[i])
	}
	return auctions, nil
}

func (r *auctionRepositoryImpl) UpdateAuction(
	ctx context.Context, key domain.AssetKey,
	updateFn func(a *domain.Auction) (*domain.Auction, error),
) error {
	auction, err := r.GetAuction(ctx, key)
	if err != nil {
		return err
	}

	updatedAuction, err := updateFn(auction)
	if err != nil {
		return err
	}

	r.store.upsert(ctx, key.String(), *updatedAuction)
	return nil
}

func (r *auctionRepositoryImpl) DeleteAuction(
	ctx context.Context, key domain.AssetKey,
) error {
	r.store.delete(ctx, key.String())
	return nil
}
