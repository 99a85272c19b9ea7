package dbbadger

import (
	"context"

	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type auctionRepositoryImpl struct {
	db *RepoManager
}

func (r auctionRepositoryImpl) AddAuction(
	ctx context.Context, auction *domain.Auction,
) error {
	if err := r.db.insert(ctx, auction.Key.String(), *auction); err != nil {
		if err == badgerhold.ErrKeyExists {
			return domain.ErrAlreadyListed
		}
		return err
	}
	return nil
}

func (r auctionRepositoryImpl) GetAuction(
	ctx context.Context, key domain.AssetKey,
) (*domain.Auction, error) {
	var auction domain.Auction
	if err := r.db.get(ctx, key.String(), &auction); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, err
	}
	return &auction, nil
}

func (r auctionRepositoryImpl) GetAllAuctions(
	ctx context.Context,
) ([]*domain.Auction, error) {
	var rows []domain.Auction
	if err := r.db.find(ctx, &rows, nil); err != nil {
		return nil, err
	}
	auctions := make([]*domain.Auction, 0, len(rows))
	for i := range rows {
		auctions = append(auctions, &rows[i])
	}
	return auctions, nil
}

func (r auctionRepositoryImpl) UpdateAuction(
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

	return r.db.upsert(ctx, key.String(), *updatedAuction)
}

func (r auctionRepositoryImpl) DeleteAuction(
	ctx context.Context, key domain.AssetKey,
) error {
	return r.db.delete(ctx, key.String(), domain.Auction{})
}
